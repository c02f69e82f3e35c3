package discovery

// accepts reports whether u's stated orientation admits gender.
// sexual_preferences wins over the legacy preferred_gender; with neither
// set the user accepts everyone.
func accepts(u *User, gender string) bool {
	if len(u.SexualPreferences) > 0 {
		return Contains(u.SexualPreferences, gender)
	}
	if u.PreferredGender != "" {
		return u.PreferredGender == gender
	}
	return true
}

// IsCompatible reports whether viewer and target each accept the other's
// gender. The result does not depend on argument order.
func IsCompatible(viewer, target *User) bool {
	return accepts(viewer, target.Gender) && accepts(target, viewer.Gender)
}

// FilterCompatible keeps the candidates mutually compatible with viewer.
func FilterCompatible(viewer *User, candidates []*User) []*User {
	out := make([]*User, 0, len(candidates))
	for _, c := range candidates {
		if IsCompatible(viewer, c) {
			out = append(out, c)
		}
	}
	return out
}
