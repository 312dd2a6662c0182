package tap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/source"
	"github.com/a2y-d5l/go-tap/stage"
)

// --------------------- Defaults Tests ---------------------

func TestBuilder_Defaults(t *testing.T) {
	b := New[string]()

	assert.Equal(t, DefaultName, b.cfg.name)
	assert.True(t, b.cfg.logNext)
	assert.True(t, b.cfg.logError)

	assert.Equal(t, observability.LevelInfo, b.cfg.nextLevel)
	assert.Equal(t, observability.LevelError, b.cfg.errorLevel)
	assert.Equal(t, observability.LevelInfo, b.cfg.completedLevel)
	assert.Equal(t, observability.LevelDebug, b.cfg.subscribedLevel)
	assert.Equal(t, observability.LevelDebug, b.cfg.unsubscribedLevel)

	assert.Empty(t, b.cfg.nextFormat)
	assert.Empty(t, b.cfg.errorFormat)
	assert.Equal(t, DefaultCompletedMessage, b.cfg.completedMessage)
	assert.Equal(t, DefaultSubscribedMessage, b.cfg.subscribedMessage)
	assert.Equal(t, DefaultUnsubscribedMessage, b.cfg.unsubscribedMessage)

	assert.Nil(t, b.cfg.backend)
	assert.Empty(t, b.cfg.chain)
}

func TestBuilder_NameAttribution(t *testing.T) {
	rec := observability.NewRecorder()
	op := Named[string]("orders").Backend(rec).Log()

	_, err := op.Wrap(source.From("a")).Subscribe(&captor[string]{})
	require.NoError(t, err)

	require.NotZero(t, rec.Len())
	for _, e := range rec.Entries() {
		assert.Equal(t, "orders", e.Name)
	}
}

// --------------------- Immutability Tests ---------------------

func TestBuilder_Branching(t *testing.T) {
	base := Named[string]("base").ShowValue()
	counted := base.ShowCount()
	sampled := base.Every(2)

	// Branching off a shared base never mutates it.
	assert.Empty(t, base.cfg.chain)
	assert.Len(t, counted.cfg.chain, 1)
	assert.Len(t, sampled.cfg.chain, 1)

	run := func(b Builder[string]) []string {
		rec := observability.NewRecorder()
		_, err := b.Backend(rec).Log().Wrap(source.From("a", "b")).Subscribe(&captor[string]{})
		require.NoError(t, err)
		return texts(rec)
	}

	assert.Equal(t, []string{"onSubscribe", "a", "b", "onCompleted", "onUnsubscribe"}, run(base))
	assert.Equal(t, []string{"onSubscribe", "a, count=1", "b, count=2", "onCompleted, count=2", "onUnsubscribe"}, run(counted))
	assert.Equal(t, []string{"onSubscribe", "b", "onCompleted", "onUnsubscribe"}, run(sampled))
}

func TestBuilder_EveryOfOneIsNoOp(t *testing.T) {
	for _, n := range []int{1, 0, -3} {
		b := New[string]().Every(n)
		assert.Empty(t, b.cfg.chain, "every(%d)", n)
	}
}

// --------------------- Rendering Option Tests ---------------------

func TestBuilder_ValueRendering(t *testing.T) {
	run := func(b Builder[string], values ...string) []string {
		rec := observability.NewRecorder()
		_, err := b.Backend(rec).Log().Wrap(source.From(values...)).Subscribe(&captor[string]{})
		require.NoError(t, err)
		return texts(rec)
	}

	t.Run("default hides the value", func(t *testing.T) {
		got := run(Named[string]("t"), "a")
		assert.Equal(t, []string{"onSubscribe", "", "onCompleted", "onUnsubscribe"}, got)
	})

	t.Run("show value keeps an existing template", func(t *testing.T) {
		got := run(Named[string]("t").OnNextFormat("value=%s").ShowValue(), "a")
		assert.Contains(t, got, "value=a")
	})

	t.Run("exclude value wins over show value", func(t *testing.T) {
		got := run(Named[string]("t").ShowValue().ExcludeValue().ShowCount(), "a")
		assert.Contains(t, got, "count=1")
		assert.NotContains(t, got, "a, count=1")
	})

	t.Run("template without verb is used verbatim", func(t *testing.T) {
		got := run(Named[string]("t").OnNextFormat("tick"), "a", "b")
		assert.Equal(t, []string{"onSubscribe", "tick", "tick", "onCompleted", "onUnsubscribe"}, got)
	})

	t.Run("projection runs before formatting", func(t *testing.T) {
		b := Named[string]("t").ShowValue().Value(func(v string) any { return len(v) })
		got := run(b, "hello")
		assert.Contains(t, got, "5")
	})
}

func TestBuilder_Prefix(t *testing.T) {
	rec := observability.NewRecorder()
	op := Named[string]("t").Prefix("got: ").Backend(rec).Log()

	_, err := op.Wrap(source.From("a")).Subscribe(&captor[string]{})
	require.NoError(t, err)
	assert.Contains(t, texts(rec), "got: a")

	rec.Reset()
	_, err = op.Wrap(source.Failed[string](errors.New("boom"))).Subscribe(&captor[string]{})
	require.NoError(t, err)
	assert.Contains(t, texts(rec), "got: boom")
}

// --------------------- Severity Tests ---------------------

func TestBuilder_Severities(t *testing.T) {
	rec := observability.NewRecorder()
	op := Named[string]("t").
		ShowValue().
		OnNextLevel(observability.LevelWarn).
		OnCompletedLevel(observability.LevelTrace).
		SubscribedLevel(observability.LevelInfo).
		UnsubscribedLevel(observability.LevelInfo).
		Backend(rec).
		Log()

	_, err := op.Wrap(source.From("a")).Subscribe(&captor[string]{})
	require.NoError(t, err)

	var levels []observability.Level
	for _, e := range rec.Entries() {
		levels = append(levels, e.Level)
	}
	want := []observability.Level{
		observability.LevelInfo,
		observability.LevelWarn,
		observability.LevelTrace,
		observability.LevelInfo,
	}
	assert.Equal(t, want, levels)
}

func TestBuilder_ErrorSeverity(t *testing.T) {
	rec := observability.NewRecorder()
	op := Named[string]("t").OnErrorLevel(observability.LevelWarn).Backend(rec).Log()
	boom := errors.New("boom")

	_, err := op.Wrap(source.Failed[string](boom)).Subscribe(&captor[string]{})
	require.NoError(t, err)

	var found bool
	for _, e := range rec.Entries() {
		if e.Err != nil {
			found = true
			assert.Equal(t, observability.LevelWarn, e.Level)
			assert.ErrorIs(t, e.Err, boom)
		}
	}
	assert.True(t, found, "no entry carried the terminal error")
}

// --------------------- Custom Stage Tests ---------------------

func TestBuilder_CustomStage(t *testing.T) {
	tag := stage.Annotate[string](func(m Message[string]) Message[string] {
		return m.Append("tagged")
	})

	rec := observability.NewRecorder()
	op := Named[string]("t").ShowValue().Stage(tag).Backend(rec).Log()

	_, err := op.Wrap(source.From("a")).Subscribe(&captor[string]{})
	require.NoError(t, err)

	assert.Contains(t, texts(rec), "a, tagged")
	assert.Contains(t, texts(rec), "onCompleted, tagged")
}

// --------------------- Backend Resolution Tests ---------------------

func TestBuilder_LogFreezesBackend(t *testing.T) {
	orig := observability.Default()
	defer observability.SetDefault(orig)

	first := observability.NewRecorder()
	observability.SetDefault(first)
	op := Named[string]("t").Log()

	second := observability.NewRecorder()
	observability.SetDefault(second)

	_, err := op.Wrap(source.From("a")).Subscribe(&captor[string]{})
	require.NoError(t, err)

	assert.NotZero(t, first.Len())
	assert.Zero(t, second.Len())
}

func TestLog_Convenience(t *testing.T) {
	orig := observability.Default()
	defer observability.SetDefault(orig)

	rec := observability.NewRecorder()
	observability.SetDefault(rec)

	_, err := Log[string]().Wrap(source.From("x")).Subscribe(&captor[string]{})
	require.NoError(t, err)

	assert.Contains(t, texts(rec), "x")
	require.NotZero(t, rec.Len())
	assert.Equal(t, DefaultName, rec.Entries()[0].Name)
}
