package di_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/di"
)

type dbConn struct{ dsn string }
type repo struct{ db *dbConn }
type service struct{ r *repo }

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves chained request-scoped providers", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{dsn: "test"}, nil
		}))
		require.NoError(t, di.Provide(c, func(rc *di.Context) (*repo, error) {
			db, err := di.Resolve[*dbConn](rc)
			if err != nil {
				return nil, err
			}
			return &repo{db: db}, nil
		}))

		rc := c.NewRequestContext(context.Background())
		defer rc.Close(context.Background())

		r, err := di.Resolve[*repo](rc)
		require.NoError(t, err)
		assert.Equal(t, "test", r.db.dsn)
	})

	t.Run("request-scoped values memoized per context", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			calls++
			return &dbConn{}, nil
		}))

		rc := c.NewRequestContext(context.Background())
		first, err := di.Resolve[*dbConn](rc)
		require.NoError(t, err)
		second, err := di.Resolve[*dbConn](rc)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)

		rc2 := c.NewRequestContext(context.Background())
		_, err = di.Resolve[*dbConn](rc2)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("missing provider fails", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		rc := c.NewRequestContext(context.Background())
		_, err := di.Resolve[*dbConn](rc)
		assert.ErrorIs(t, err, di.ErrMissingProvider)
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return nil, boom
		}))

		rc := c.NewRequestContext(context.Background())
		_, err := di.Resolve[*dbConn](rc)
		assert.ErrorIs(t, err, di.ErrFactory)
	})

	t.Run("last registration wins", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{dsn: "first"}, nil
		}))
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{dsn: "second"}, nil
		}))

		rc := c.NewRequestContext(context.Background())
		db, err := di.Resolve[*dbConn](rc)
		require.NoError(t, err)
		assert.Equal(t, "second", db.dsn)
	})

	t.Run("supplied value bypasses provider", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		rc := c.NewRequestContext(context.Background())
		seeded := &dbConn{dsn: "seeded"}
		di.Supply(rc, seeded)

		db, err := di.Resolve[*dbConn](rc)
		require.NoError(t, err)
		assert.Same(t, seeded, db)
	})
}

func TestCycleDetection(t *testing.T) {
	t.Parallel()

	t.Run("runtime cycle fails with chain", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(rc *di.Context) (*repo, error) {
			_, err := di.Resolve[*service](rc)
			return nil, err
		}))
		require.NoError(t, di.Provide(c, func(rc *di.Context) (*service, error) {
			_, err := di.Resolve[*repo](rc)
			return nil, err
		}))

		rc := c.NewRequestContext(context.Background())
		_, err := di.Resolve[*repo](rc)
		assert.ErrorIs(t, err, di.ErrCycle)
	})

	t.Run("declared cycle caught by Validate", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*repo, error) {
			return nil, nil
		}, di.WithDeps(di.Dep[*service]())))
		require.NoError(t, di.Provide(c, func(*di.Context) (*service, error) {
			return nil, nil
		}, di.WithDeps(di.Dep[*repo]())))

		assert.ErrorIs(t, c.Validate(), di.ErrCycle)
	})

	t.Run("missing declared dep caught by Validate", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*repo, error) {
			return nil, nil
		}, di.WithDeps(di.Dep[*dbConn]())))

		assert.ErrorIs(t, c.Validate(), di.ErrMissingProvider)
	})

	t.Run("required types checked by Validate", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		assert.ErrorIs(t, c.Validate(di.Dep[*dbConn]()), di.ErrMissingProvider)
	})
}

func TestScopes(t *testing.T) {
	t.Parallel()

	t.Run("application-scoped values shared across requests", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			calls++
			return &dbConn{}, nil
		}, di.WithScope(di.ScopeApplication)))

		rc1 := c.NewRequestContext(context.Background())
		first, err := di.Resolve[*dbConn](rc1)
		require.NoError(t, err)

		rc2 := c.NewRequestContext(context.Background())
		second, err := di.Resolve[*dbConn](rc2)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("app factory cannot resolve request-scoped deps", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{}, nil
		}))
		require.NoError(t, di.Provide(c, func(rc *di.Context) (*repo, error) {
			db, err := di.Resolve[*dbConn](rc)
			if err != nil {
				return nil, err
			}
			return &repo{db: db}, nil
		}, di.WithScope(di.ScopeApplication)))

		rc := c.NewRequestContext(context.Background())
		_, err := di.Resolve[*repo](rc)
		assert.ErrorIs(t, err, di.ErrScopeViolation)
	})

	t.Run("declared scope violation caught by Validate", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{}, nil
		}))
		require.NoError(t, di.Provide(c, func(*di.Context) (*repo, error) {
			return nil, nil
		}, di.WithScope(di.ScopeApplication), di.WithDeps(di.Dep[*dbConn]())))

		assert.ErrorIs(t, c.Validate(), di.ErrScopeViolation)
	})

	t.Run("app factory may use app-scoped deps", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{dsn: "shared"}, nil
		}, di.WithScope(di.ScopeApplication)))
		require.NoError(t, di.Provide(c, func(rc *di.Context) (*repo, error) {
			db, err := di.Resolve[*dbConn](rc)
			if err != nil {
				return nil, err
			}
			return &repo{db: db}, nil
		}, di.WithScope(di.ScopeApplication)))

		rc := c.NewRequestContext(context.Background())
		r, err := di.Resolve[*repo](rc)
		require.NoError(t, err)
		assert.Equal(t, "shared", r.db.dsn)
	})
}

func TestTeardown(t *testing.T) {
	t.Parallel()

	t.Run("request teardowns run LIFO exactly once", func(t *testing.T) {
		t.Parallel()

		var order []string
		c := di.NewContainer()
		require.NoError(t, di.ProvideYielding(c, func(*di.Context) (*dbConn, di.Teardown, error) {
			return &dbConn{}, func(context.Context) error {
				order = append(order, "db")
				return nil
			}, nil
		}))
		require.NoError(t, di.ProvideYielding(c, func(rc *di.Context) (*repo, di.Teardown, error) {
			db, err := di.Resolve[*dbConn](rc)
			if err != nil {
				return nil, nil, err
			}
			return &repo{db: db}, func(context.Context) error {
				order = append(order, "repo")
				return nil
			}, nil
		}))

		rc := c.NewRequestContext(context.Background())
		_, err := di.Resolve[*repo](rc)
		require.NoError(t, err)

		require.NoError(t, rc.Close(context.Background()))
		require.NoError(t, rc.Close(context.Background()))

		assert.Equal(t, []string{"repo", "db"}, order)
	})

	t.Run("closed context rejects resolution", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
			return &dbConn{}, nil
		}))

		rc := c.NewRequestContext(context.Background())
		require.NoError(t, rc.Close(context.Background()))

		_, err := di.Resolve[*dbConn](rc)
		assert.ErrorIs(t, err, di.ErrClosed)
	})

	t.Run("app teardowns run at shutdown in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string
		c := di.NewContainer()
		require.NoError(t, di.ProvideYielding(c, func(*di.Context) (*dbConn, di.Teardown, error) {
			return &dbConn{}, func(context.Context) error {
				order = append(order, "db")
				return nil
			}, nil
		}, di.WithScope(di.ScopeApplication)))
		require.NoError(t, di.ProvideYielding(c, func(rc *di.Context) (*repo, di.Teardown, error) {
			db, err := di.Resolve[*dbConn](rc)
			if err != nil {
				return nil, nil, err
			}
			return &repo{db: db}, func(context.Context) error {
				order = append(order, "repo")
				return nil
			}, nil
		}, di.WithScope(di.ScopeApplication)))

		require.NoError(t, c.Startup(context.Background()))
		require.NoError(t, c.Shutdown(context.Background()))

		assert.Equal(t, []string{"repo", "db"}, order)
	})
}

func TestFreeze(t *testing.T) {
	t.Parallel()

	c := di.NewContainer()
	c.Freeze()
	err := di.Provide(c, func(*di.Context) (*dbConn, error) {
		return &dbConn{}, nil
	})
	assert.ErrorIs(t, err, di.ErrFrozen)
}

func TestConcurrentAppResolution(t *testing.T) {
	t.Parallel()

	calls := 0
	c := di.NewContainer()
	require.NoError(t, di.Provide(c, func(*di.Context) (*dbConn, error) {
		calls++
		return &dbConn{}, nil
	}, di.WithScope(di.ScopeApplication)))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc := c.NewRequestContext(context.Background())
			_, err := di.Resolve[*dbConn](rc)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}
