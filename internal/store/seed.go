package store

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// SeedOptions controls demo data generation.
type SeedOptions struct {
	Leads int       // number of leads to create; defaults to 250
	Seed  uint64    // PRNG seed; the same seed always produces the same data
	Now   time.Time // newest creation time; defaults to time.Now()
	Reset bool      // delete existing leads first
}

// SeedResult reports what Seed created.
type SeedResult struct {
	Leads       int
	TeamMembers int
	Campaigns   int
}

var seedTeam = []struct{ id, name string }{
	{"alice", "Alice Moreno"},
	{"bilal", "Bilal Hassan"},
	{"chen", "Chen Wei"},
	{"dana", "Dana Kowalski"},
}

var (
	seedCampaigns = []string{"Spring Promo", "Partner Webinar", "Trade Show 2024", "Cold Outreach Q3"}
	seedSources   = []string{"web", "referral", "webinar", "event", "import", "ads"}
	seedFirst     = []string{"Ava", "Liam", "Noah", "Mia", "Zoe", "Omar", "Ines", "Jonas", "Priya", "Kenji", "Sofia", "Mateo", "Hana", "Leo", "Nadia", "Tariq"}
	seedLast      = []string{"Garcia", "Schmidt", "Okafor", "Tanaka", "Rossi", "Novak", "Dubois", "Silva", "Khan", "Larsen", "Moreau", "Ivanova"}
	seedCompanies = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries", "Wayne Enterprises", "Soylent", "Vandelay", "Pied Piper"}
	seedStatuses  = []string{"new", "new", "new", "claimed", "claimed", "contacted", "contacted", "closed", "lost", "unreachable"}
)

// Seed fills the database with deterministic demo leads, team members and
// campaigns.
func (s *Store) Seed(opts SeedOptions) (*SeedResult, error) {
	if opts.Leads <= 0 {
		opts.Leads = 250
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Reset {
		if err := s.DeleteAllLeads(); err != nil {
			return nil, err
		}
	}

	for _, m := range seedTeam {
		if err := s.UpsertTeamMember(m.id, m.name, m.id+"@leaddesk.example"); err != nil {
			return nil, err
		}
	}
	campaignIDs := make([]int64, len(seedCampaigns))
	for i, name := range seedCampaigns {
		id, err := s.EnsureCampaign(name)
		if err != nil {
			return nil, err
		}
		campaignIDs[i] = id
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	leads := make([]LeadInput, opts.Leads)
	for i := range leads {
		first := seedFirst[rng.IntN(len(seedFirst))]
		last := seedLast[rng.IntN(len(seedLast))]
		company := seedCompanies[rng.IntN(len(seedCompanies))]
		domain := strings.ToLower(strings.ReplaceAll(company, " ", "")) + ".com"

		in := LeadInput{
			Name:       first + " " + last,
			Company:    company,
			Source:     seedSources[rng.IntN(len(seedSources))],
			Status:     seedStatuses[rng.IntN(len(seedStatuses))],
			ValueCents: int64(rng.IntN(500)) * 100_00,
			// Spread creation over the last 90 days.
			CreatedAt: opts.Now.Add(-time.Duration(rng.IntN(90*24*60)) * time.Minute),
		}
		if rng.IntN(10) > 0 {
			in.Email = fmt.Sprintf("%s.%s@%s", strings.ToLower(first), strings.ToLower(last), domain)
		}
		if rng.IntN(3) > 0 {
			in.Phone = fmt.Sprintf("+1-555-%04d", rng.IntN(10000))
		}
		if in.Status != "new" {
			in.OwnerID = seedTeam[rng.IntN(len(seedTeam))].id
		}
		if rng.IntN(2) == 0 {
			id := campaignIDs[rng.IntN(len(campaignIDs))]
			in.CampaignID = &id
		}
		leads[i] = in
	}

	if err := s.InsertLeads(leads); err != nil {
		return nil, err
	}
	return &SeedResult{
		Leads:       len(leads),
		TeamMembers: len(seedTeam),
		Campaigns:   len(seedCampaigns),
	}, nil
}
