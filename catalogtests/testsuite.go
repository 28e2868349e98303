package catalogtests

import (
	"context"

	"github.com/catalogqa/catalog-contract-tests/config"
	"github.com/catalogqa/catalog-contract-tests/framework"

	"github.com/stretchr/testify/require"
)

// Scenario is one end-to-end check, run with the session of its fixture.
type Scenario struct {
	Name string
	Run  func(t *T, session Session)
}

// Fixture is a group of scenarios that share one login. Scenarios run in the order listed.
type Fixture struct {
	Name      string
	Scenarios []Scenario
}

// AllFixtures returns every fixture in the order they run. The book scenarios each act on a
// different seeded book, but some of them change the service's data, so their order is fixed.
func AllFixtures() []Fixture {
	return []Fixture{
		{
			Name: "book categories",
			Scenarios: []Scenario{
				{"category lifecycle", DoCategoryLifecycleTest},
			},
		},
		{
			Name: "books",
			Scenarios: []Scenario{
				{"get all books", DoGetAllBooksTest},
				{"get book by title", DoGetBookByTitleTest},
				{"add book", DoAddBookTest},
				{"update book", DoUpdateBookTest},
				{"delete book", DoDeleteBookTest},
			},
		},
	}
}

// Suite is a configured run of the catalog tests.
type Suite struct {
	Executor Executor
	Config   config.Config
	// Titles generates titles for created entities. If nil, RandomTitles is used.
	Titles   TitleGenerator
	Fixtures []Fixture
}

func RunTestSuite(
	executor Executor,
	cfg config.Config,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	s := Suite{Executor: executor, Config: cfg}
	return s.Run(context.Background(), filter, testLogger)
}

// Run executes every fixture in order and returns the results.
func (s Suite) Run(ctx context.Context, filter framework.Filter, testLogger framework.TestLogger) framework.Results {
	env := &environment{
		ctx:      ctx,
		executor: s.Executor,
		config:   s.Config,
		titles:   s.Titles,
	}
	if env.titles == nil {
		env.titles = RandomTitles
	}
	fixtures := s.Fixtures
	if fixtures == nil {
		fixtures = AllFixtures()
	}
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		for _, f := range fixtures {
			runFixture(c, env, f)
		}
	})
}

func runFixture(parent *framework.Context, env *environment, f Fixture) {
	parent.RunGroup(f.Name, func(c *framework.Context) {
		t := newTestScope(c, env)
		var selected []Scenario
		for _, s := range f.Scenarios {
			if c.Selected(c.ID().Plus(s.Name)) {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			// no login is needed; this only reports each scenario as excluded
			for _, s := range f.Scenarios {
				c.Run(s.Name, nil)
			}
			return
		}

		session, err := Authenticate(env.ctx, env.executor, env.config.LoginPath, env.config.Credentials(), c.DebugLogger())
		require.NoError(t, err, "could not log in; none of the %s tests were run", f.Name)
		t.Debug("logged in to %s", session.BaseURL)

		for _, s := range f.Scenarios {
			scenario := s
			t.Run(scenario.Name, func(t *T) {
				scenario.Run(t, session)
			})
		}
	})
}
