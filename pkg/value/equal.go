package value

import "reflect"

// LooseEqual compares a and b with coercion: null equals undefined, numbers,
// booleans and numeric strings compare numerically, strings compare as
// strings. Containers fall back to deep equality.
func LooseEqual(a, b any) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}
	af, aNum := ToFloat(a)
	bf, bNum := ToFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// StrictEqual compares a and b without coercion: the kinds must match and the
// values must be equal. Integral and floating numbers belong to one numeric
// kind and compare numerically.
func StrictEqual(a, b any) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if IsUndefined(a) || IsUndefined(b) {
		return IsUndefined(a) && IsUndefined(b)
	}
	if IsNumber(a) || IsNumber(b) {
		if !IsNumber(a) || !IsNumber(b) {
			return false
		}
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		return af == bf
	}
	if KindName(a) != KindName(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}
