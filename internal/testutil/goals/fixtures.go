package goals

// Fixture is a predefined set of goals for a test scenario.
type Fixture interface {
	Name() string
	Goals() []Spec
}

type fixture struct {
	name  string
	goals []Spec
}

func (f *fixture) Name() string  { return f.name }
func (f *fixture) Goals() []Spec { return f.goals }

// Predefined fixtures.
var (
	// FixtureMixed has one goal in each state: untouched, in progress and completed.
	FixtureMixed Fixture = &fixture{
		name: "Mixed",
		goals: []Spec{
			{Title: "Emergency fund", Target: "5000"},
			{Title: "Vacation in Japan", Target: "3000", Deposits: []string{"1000", "200"}},
			{Title: "New Laptop", Target: "1500", Deposits: []string{"1500"}},
		},
	}

	// FixtureOngoing has only goals that still accept deposits.
	FixtureOngoing Fixture = &fixture{
		name: "Ongoing",
		goals: []Spec{
			{Title: "Bike", Target: "600", Deposits: []string{"50"}},
			{Title: "Camera", Target: "900"},
		},
	}
)
