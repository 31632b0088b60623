package ir

// Subtype check for runtime types.

// Promotions maps primitive full names to the primitive they promote to,
// adding ad-hoc subtype edges beyond the built-in bool -> int and
// short_int -> int. The table is built once at startup and read-only
// afterwards; pass nil for the built-in edges only.
type Promotions map[string]string

// IsSubtype reports whether left is usable where right is expected, using
// only the built-in promotions.
func IsSubtype(left, right RType) bool {
	return IsSubtypeWith(left, right, nil)
}

// IsSubtypeWith is IsSubtype with an extra promotion table applied to
// primitive pairs.
func IsSubtypeWith(left, right RType, promotions Promotions) bool {
	if IsObjectRPrimitive(right) {
		return true
	}
	if runion, ok := right.(*RUnion); ok {
		if lunion, ok := left.(*RUnion); ok {
			for _, leftItem := range lunion.Items {
				accepted := false
				for _, rightItem := range runion.Items {
					if IsSubtypeWith(leftItem, rightItem, promotions) {
						accepted = true
						break
					}
				}
				if !accepted {
					return false
				}
			}
			return true
		}
		for _, item := range runion.Items {
			if IsSubtypeWith(left, item, promotions) {
				return true
			}
		}
		return false
	}
	switch left := left.(type) {
	case *RInstance:
		rinst, ok := right.(*RInstance)
		return ok && left.Class.HasInMRO(rinst.Class)
	case *RUnion:
		for _, item := range left.Items {
			if !IsSubtypeWith(item, right, promotions) {
				return false
			}
		}
		return true
	case *RPrimitive:
		if IsBoolRPrimitive(left) && IsIntRPrimitive(right) {
			return true
		}
		if IsShortIntRPrimitive(left) && IsIntRPrimitive(right) {
			return true
		}
		if rp, ok := right.(*RPrimitive); ok && promotions != nil {
			if to, ok := promotions[left.TypeName]; ok && to == rp.TypeName {
				return true
			}
		}
		return RType(left) == right
	case *RTuple:
		if IsTupleRPrimitive(right) {
			return true
		}
		rtup, ok := right.(*RTuple)
		if !ok || len(rtup.Types) != len(left.Types) {
			return false
		}
		for i, t := range left.Types {
			if !IsSubtypeWith(t, rtup.Types[i], promotions) {
				return false
			}
		}
		return true
	case *RVoid:
		return IsVoidRType(right)
	}
	return false
}
