package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// Provider implements interfaces.ProfileProvider (spec §4.5): a read-only
// facade over UserProfile + active CV, deriving the embedding source text
// by concatenating title(s), top skills, recent roles/achievements, and
// profile keywords. Grounded on the teacher's document-provider
// capability-interface pattern (a read-only accessor the matching layer
// depends on without knowing the storage implementation).
type Provider struct {
	profiles interfaces.ProfileStorage
	cvs      interfaces.CVStorage
	logger   arbor.ILogger
}

func NewProvider(profiles interfaces.ProfileStorage, cvs interfaces.CVStorage, logger arbor.ILogger) interfaces.ProfileProvider {
	return &Provider{profiles: profiles, cvs: cvs, logger: logger}
}

// Get returns nil, nil when the user has no profile at all; callers must
// treat that as "skip this user", not as an error (spec §4.5, §4.7).
func (p *Provider) Get(ctx context.Context, userID string) (*interfaces.CandidateProfile, error) {
	prof, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return nil, nil
	}

	cv, err := p.cvs.GetActiveForUser(ctx, userID)
	if err != nil {
		cv = nil // no active completed CV: Matcher text still derives from the profile alone
	}

	return &interfaces.CandidateProfile{
		Profile:    prof,
		CV:         cv,
		SourceText: buildSourceText(prof, cv),
	}, nil
}

func buildSourceText(profile *models.UserProfile, cv *models.CV) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", profile.PrimaryTitle, profile.SecondaryTitle, profile.SeniorityLevel)

	for _, s := range profile.TechnicalSkills {
		b.WriteString(s.Name)
		b.WriteString(" ")
	}
	for _, s := range profile.SoftSkills {
		b.WriteString(s.Name)
		b.WriteString(" ")
	}
	b.WriteString("\n")
	b.WriteString(strings.Join(profile.PreferredKeywords, " "))

	if cv != nil && cv.Status == models.CVStatusCompleted && cv.Content != nil {
		b.WriteString("\n")
		b.WriteString(cv.Content.Summary)
		for _, exp := range cv.Content.Experience {
			fmt.Fprintf(&b, "\n%s %s", exp.Title, exp.Description)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cv.Content.Skills, " "))
	}

	return strings.TrimSpace(b.String())
}
