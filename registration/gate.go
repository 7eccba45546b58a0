package registration

// ComputePendingSteps returns the mandatory steps not yet satisfied: the
// password step first, then schemes in configured order. A nil profile is
// treated as one without a password.
func ComputePendingSteps(cfg Config, profile *Profile, schemes SchemeMap) []StepDescriptor {
	var steps []StepDescriptor

	passwordSet := profile != nil && profile.PasswordSet
	if cfg.SetPassword == RequirementAlways && !passwordSet {
		steps = append(steps, StepDescriptor{Kind: StepPassword})
	}

	for _, s := range cfg.Schemes {
		if s.Register == RequirementAlways && !schemes[s.Name] {
			steps = append(steps, StepDescriptor{
				Kind:        StepScheme,
				Scheme:      s.Name,
				DisplayName: s.Label(),
			})
		}
	}

	return steps
}

// CanFinalize reports whether the registration may be completed.
func CanFinalize(steps []StepDescriptor) bool {
	return len(steps) == 0
}
