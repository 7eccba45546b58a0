package registration

// Link is a destination offered once the registration is complete. Label is
// a translation key.
type Link struct {
	Label string
	URL   string
}

// LinkConfig holds the console-side completion settings.
type LinkConfig struct {
	RegisterComplete []Link
	CallbackURL      string
	ProfileURL       string
}

const keyLoginLink = "callback.button-login"
const keyProfileLink = "profile.register-profile-complete-link"

// CompletionLinks lists the configured completion links, then a login link
// to the configured or profile callback URL. When nothing applies it falls
// back to the profile URL.
func CompletionLinks(cfg LinkConfig, profile *Profile) []Link {
	var links []Link
	for _, l := range cfg.RegisterComplete {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	switch {
	case cfg.CallbackURL != "":
		links = append(links, Link{Label: keyLoginLink, URL: cfg.CallbackURL})
	case profile != nil && profile.CallbackURL != "":
		links = append(links, Link{Label: keyLoginLink, URL: profile.CallbackURL})
	}
	if len(links) == 0 && cfg.ProfileURL != "" {
		links = append(links, Link{Label: keyProfileLink, URL: cfg.ProfileURL})
	}
	return links
}
