package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

// ===== LinkedIn OAuth =====

const (
	linkedInProfileURL = "https://api.linkedin.com/v2/people/~"
	linkedInEmailURL   = "https://api.linkedin.com/v2/emailAddress"

	// linkedInLocale selects which localized name variant is used.
	linkedInLocale = "en_US"
)

// LinkedInUserInfo represents the profile returned by the LinkedIn v2 people API.
// Requires the `r_liteprofile` scope.
// See: https://learn.microsoft.com/en-us/linkedin/shared/integrations/people/profile-api
type LinkedInUserInfo struct {
	ID             string            `json:"id"`
	FirstName      LinkedInLocalized `json:"firstName"`
	LastName       LinkedInLocalized `json:"lastName"`
	ProfilePicture *LinkedInPicture  `json:"profilePicture,omitempty"`
}

// LinkedInLocalized holds a multi-locale string keyed by locale (e.g. "en_US").
type LinkedInLocalized struct {
	Localized map[string]string `json:"localized"`
}

func (l LinkedInLocalized) get(locale string) string {
	return l.Localized[locale]
}

// LinkedInPicture is the projected profile picture. The actual image URL is
// nested within 'displayImage~' elements and their identifiers.
type LinkedInPicture struct {
	DisplayImage struct {
		Elements []LinkedInImageElement `json:"elements"`
	} `json:"displayImage~"`
}

// LinkedInImageElement is part of the nested structure for profile pictures.
type LinkedInImageElement struct {
	Identifiers []LinkedInImageIdentifier `json:"identifiers"`
}

// LinkedInImageIdentifier holds the image URL within the nested picture structure.
type LinkedInImageIdentifier struct {
	Identifier string `json:"identifier"`
}

// LinkedInEmailInfo represents the structure returned by LinkedIn's Email API (`/v2/emailAddress`).
// Requires the `r_emailaddress` scope.
// See: https://learn.microsoft.com/en-us/linkedin/shared/integrations/people/email-address-api
type LinkedInEmailInfo struct {
	Elements []LinkedInEmailElement `json:"elements"`
}

// LinkedInEmailElement contains details about a single email address associated with the user.
type LinkedInEmailElement struct {
	Handle struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"handle~"`
}

// linkedinProvider implements the Provider interface for LinkedIn OAuth.
type linkedinProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newLinkedInProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(LinkedIn, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &linkedinProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"r_emailaddress,r_liteprofile"},
			Endpoint:     linkedin.Endpoint, // client credentials go in the form body
		},
	}, nil
}

func (l *linkedinProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	if p.state == "" {
		p.state = placeholderState
	}
	return l.oauth.AuthCodeURL(p.state)
}

func (l *linkedinProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	token, err := l.exchangeWithConfig(ctx, l.oauth, code, nil, "error_description")
	if err != nil {
		l.log(ctx, "exchange").Error("Failed to exchange code for token", zap.Error(err))
		return "", err
	}
	return token, nil
}

// UserInfo fetches the profile and then the primary email address, and
// merges both into one User.
func (l *linkedinProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := l.log(ctx, "login")

	var profile LinkedInUserInfo
	err := l.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    linkedInProfileURL,
		query:  url.Values{"projection": {"(id,firstName,lastName,profilePicture(displayImage~:playableStreams))"}},
		header: bearer(token),
	}, &profile)
	if err != nil {
		logger.Error("Failed to get LinkedIn profile", zap.Error(err))
		return nil, l.userInfoError(err, "message")
	}
	if profile.ID == "" {
		logger.Error("LinkedIn profile response has no id")
		return nil, l.userInfoError(errMissingUserID)
	}

	var emailInfo LinkedInEmailInfo
	err = l.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    linkedInEmailURL,
		query: url.Values{
			"q":          {"members"},
			"projection": {"(elements*(handle~))"},
		},
		header: bearer(token),
	}, &emailInfo)
	if err != nil {
		logger.Error("Failed to get LinkedIn email", zap.Error(err))
		return nil, l.userInfoError(err, "message")
	}

	email := ""
	if len(emailInfo.Elements) > 0 {
		email = emailInfo.Elements[0].Handle.EmailAddress
	}

	first := profile.FirstName.get(linkedInLocale)
	last := profile.LastName.get(linkedInLocale)

	user := &User{
		ID:       profile.ID,
		Name:     strings.TrimSpace(first + " " + last),
		Email:    email,
		Picture:  extractLinkedInProfilePictureURL(profile.ProfilePicture),
		Provider: LinkedIn,
	}

	logger.Info("LinkedIn login successful", zap.String("linkedin_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// extractLinkedInProfilePictureURL returns the first identifier of the first
// display image element, or "" when the projection carried none.
func extractLinkedInProfilePictureURL(pic *LinkedInPicture) string {
	if pic == nil || len(pic.DisplayImage.Elements) == 0 {
		return ""
	}
	ids := pic.DisplayImage.Elements[0].Identifiers
	if len(ids) == 0 {
		return ""
	}
	return ids[0].Identifier
}
