package types

// IsSubtype decides whether left is usable where right is expected.
// Any is compatible in both directions. Instances relate through the MRO
// or through promotion-table edges from any class in the left instance's
// MRO (bool reaches float through int).
func IsSubtype(left, right Type, promotions *PromotionTable) bool {
	if _, ok := left.(*AnyType); ok {
		return true
	}
	if _, ok := right.(*AnyType); ok {
		return true
	}
	if rinst, ok := right.(*Instance); ok && rinst.Info.FullName == "builtins.object" {
		return true
	}
	if runion, ok := right.(*UnionType); ok {
		if lunion, ok := left.(*UnionType); ok {
			for _, leftItem := range lunion.Items {
				accepted := false
				for _, rightItem := range runion.Items {
					if IsSubtype(leftItem, rightItem, promotions) {
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
			if IsSubtype(left, item, promotions) {
				return true
			}
		}
		return false
	}
	if lunion, ok := left.(*UnionType); ok {
		for _, item := range lunion.Items {
			if !IsSubtype(item, right, promotions) {
				return false
			}
		}
		return true
	}

	switch left := left.(type) {
	case *Instance:
		rinst, ok := right.(*Instance)
		if !ok {
			return false
		}
		if left.Info.HasBase(rinst.Info) {
			return instanceArgsMatch(left, rinst, promotions)
		}
		if rinst.Info.IsProtocol && left.Info.ImplementsProtocol(rinst.Info) {
			return true
		}
		if promotions != nil {
			for _, base := range left.Info.MRO {
				if promotions.PromotesTo(base.FullName, rinst.Info.FullName) {
					return true
				}
			}
		}
		return false
	case *NoneType:
		_, ok := right.(*NoneType)
		return ok
	case *TupleType:
		rtup, ok := right.(*TupleType)
		if !ok {
			if rinst, ok := right.(*Instance); ok {
				return rinst.Info.FullName == "builtins.tuple"
			}
			return false
		}
		if len(rtup.Items) != len(left.Items) {
			return false
		}
		for i, item := range left.Items {
			if !IsSubtype(item, rtup.Items[i], promotions) {
				return false
			}
		}
		return true
	case *CallableType:
		rcall, ok := right.(*CallableType)
		if !ok || len(rcall.Params) != len(left.Params) {
			return false
		}
		// Parameters are contravariant, the return type covariant.
		for i, param := range rcall.Params {
			if !IsSubtype(param, left.Params[i], promotions) {
				return false
			}
		}
		return IsSubtype(left.Ret, rcall.Ret, promotions)
	case *LiteralType:
		if rlit, ok := right.(*LiteralType); ok {
			return left.Equals(rlit)
		}
		return IsSubtype(left.Base, right, promotions)
	case *TypeVarType:
		if rvar, ok := right.(*TypeVarType); ok {
			return left.VarName == rvar.VarName
		}
		if left.Bound != nil {
			return IsSubtype(left.Bound, right, promotions)
		}
		return false
	case *ErasedType:
		return true
	}
	return false
}

// instanceArgsMatch compares type arguments when an instance relation holds
// at the class level. Arguments are treated invariantly; mismatched arity
// (a bare generic) is accepted.
func instanceArgsMatch(left, right *Instance, promotions *PromotionTable) bool {
	if len(left.Args) == 0 || len(right.Args) == 0 {
		return true
	}
	if len(left.Args) != len(right.Args) {
		return false
	}
	for i, arg := range left.Args {
		if !arg.Equals(right.Args[i]) {
			// Any on either side keeps gradual compatibility.
			if _, ok := arg.(*AnyType); ok {
				continue
			}
			if _, ok := right.Args[i].(*AnyType); ok {
				continue
			}
			return false
		}
	}
	return true
}
