package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int
	Name string
}

type mailer struct {
	from string
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := New()
	require.NoError(t, r.Register(Definition{
		Name:     "Widget",
		Location: LocationRecords,
		New:      func() any { return &widget{} },
	}))
	require.NoError(t, r.Register(Definition{
		Name:     "Mailer",
		Location: LocationInfrastructure,
		New:      func() any { return &mailer{from: "noreply@example.com"} },
	}))
	return r
}

func TestResolveSingletonReturnsCachedInstance(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.Resolve("Widget", true)
	require.NoError(t, err)
	second, err := r.Resolve("Widget", true)
	require.NoError(t, err)

	assert.Same(t, first, second, "singleton resolution should reuse the cached instance")
}

func TestResolveFreshReturnsDistinctInstances(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.Resolve("Widget", false)
	require.NoError(t, err)
	second, err := r.Resolve("Widget", false)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.IsType(t, &widget{}, first)
}

func TestResolveFreshDoesNotPopulateCache(t *testing.T) {
	r := newTestRegistry(t)

	fresh, err := r.Resolve("Widget", false)
	require.NoError(t, err)
	cached, err := r.Resolve("Widget", true)
	require.NoError(t, err)

	assert.NotSame(t, fresh, cached)
}

func TestResolveUnknownType(t *testing.T) {
	r := newTestRegistry(t)

	inst, err := r.Resolve("Gadget", true)

	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "Gadget")
}

func TestOverride(t *testing.T) {
	r := newTestRegistry(t)

	original, err := r.Resolve("Mailer", true)
	require.NoError(t, err)

	replacement := &mailer{from: "test@example.com"}
	r.Override("Mailer", replacement)

	got, err := r.Resolve("Mailer", true)
	require.NoError(t, err)
	assert.Same(t, replacement, got)
	assert.NotSame(t, original, got)

	t.Run("unregistered name", func(t *testing.T) {
		stub := &widget{Name: "stub"}
		r.Override("Stub", stub)

		got, err := r.Resolve("Stub", true)
		require.NoError(t, err)
		assert.Same(t, stub, got)

		_, err = r.Resolve("Stub", false)
		assert.ErrorIs(t, err, ErrUnknownType, "fresh instances still need a definition")
	})
}

func TestEnsureLoadable(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.EnsureLoadable("Widget", true))
	assert.True(t, r.EnsureLoadable("Widget", true), "loading twice must be harmless")
	assert.True(t, r.EnsureLoadable("Mailer", false))
	assert.False(t, r.EnsureLoadable("Gadget", true))
	assert.False(t, r.EnsureLoadable("", false))
}

func TestEnsureLoadableSearchesRecordsFirst(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Definition{
		Name:     "Session",
		Location: LocationInfrastructure,
		New:      func() any { return &mailer{} },
	}))
	require.NoError(t, r.Register(Definition{
		Name:     "Session",
		Location: LocationRecords,
		New:      func() any { return &widget{} },
	}))

	require.True(t, r.EnsureLoadable("Session", true))

	inst, err := r.Resolve("Session", false)
	require.NoError(t, err)
	assert.IsType(t, &widget{}, inst)
}

func TestRegisterErrors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name:    "duplicate in same location",
			def:     Definition{Name: "Widget", Location: LocationRecords, New: func() any { return &widget{} }},
			wantErr: ErrDuplicateDefinition,
		},
		{
			name:    "missing name",
			def:     Definition{Location: LocationRecords, New: func() any { return &widget{} }},
			wantErr: ErrInvalidDefinition,
		},
		{
			name:    "missing constructor",
			def:     Definition{Name: "Thing", Location: LocationRecords},
			wantErr: ErrInvalidDefinition,
		},
		{
			name:    "unknown location",
			def:     Definition{Name: "Thing", Location: Location(7), New: func() any { return nil }},
			wantErr: ErrInvalidDefinition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tt.def), tt.wantErr)
		})
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := newTestRegistry(t)

	assert.Panics(t, func() {
		r.MustRegister(Definition{Name: "Widget", Location: LocationRecords, New: func() any { return &widget{} }})
	})
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "records", LocationRecords.String())
	assert.Equal(t, "infrastructure", LocationInfrastructure.String())
	assert.Equal(t, "location(9)", Location(9).String())
}

func TestResolveConcurrentSingleton(t *testing.T) {
	r := newTestRegistry(t)

	const workers = 16
	results := make([]any, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst, err := r.Resolve("Widget", true)
			if err == nil {
				results[i] = inst
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
}
