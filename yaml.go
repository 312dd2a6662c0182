package tap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/a2y-d5l/go-tap/observability"
)

// ----------------------------- YAML profiles -------------------------------

// yamlProfile is the on-disk shape of a declarative instrumentation
// profile. Pointer fields distinguish "absent, keep the default" from an
// explicit empty value, which for lifecycle messages means "suppress the
// line".
type yamlProfile struct {
	Name         *string        `yaml:"name"`
	Next         *yamlKind      `yaml:"next"`
	Error        *yamlKind      `yaml:"error"`
	Completed    *yamlLifecycle `yaml:"completed"`
	Subscribed   *yamlLifecycle `yaml:"subscribed"`
	Unsubscribed *yamlLifecycle `yaml:"unsubscribed"`
	ShowMemory   bool           `yaml:"show_memory"`
	ShowStack    bool           `yaml:"show_stack"`
	ShowSubID    bool           `yaml:"show_subscription_id"`

	Stages []map[string]yaml.Node `yaml:"stages"`
}

type yamlKind struct {
	Enabled *bool   `yaml:"enabled"`
	Level   *string `yaml:"level"`
	Prefix  *string `yaml:"prefix"`
	Format  *string `yaml:"format"`
}

type yamlLifecycle struct {
	Message *string `yaml:"message"`
	Level   *string `yaml:"level"`
}

// FromYAML builds a builder from a declarative profile. Predicates,
// projections, and custom stages are code-only concerns; the returned
// builder composes further, so they can be added afterwards.
//
// Unknown top-level keys, unknown stage names, and unknown level names are
// load-time errors.
func FromYAML[T any](data []byte) (Builder[T], error) {
	var p yamlProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return New[T](), nil
		}
		return Builder[T]{}, fmt.Errorf("parse profile: %w", err)
	}

	b := New[T]()
	if p.Name != nil {
		b = b.Name(*p.Name)
	}

	b, err := applyKind(b, "next", p.Next,
		Builder[T].OnNext, Builder[T].OnNextLevel, Builder[T].OnNextPrefix, Builder[T].OnNextFormat)
	if err != nil {
		return Builder[T]{}, err
	}
	b, err = applyKind(b, "error", p.Error,
		Builder[T].OnError, Builder[T].OnErrorLevel, Builder[T].OnErrorPrefix, Builder[T].OnErrorFormat)
	if err != nil {
		return Builder[T]{}, err
	}

	b, err = applyLifecycle(b, "completed", p.Completed,
		Builder[T].CompletedMessage, Builder[T].OnCompletedLevel)
	if err != nil {
		return Builder[T]{}, err
	}
	b, err = applyLifecycle(b, "subscribed", p.Subscribed,
		Builder[T].SubscribedMessage, Builder[T].SubscribedLevel)
	if err != nil {
		return Builder[T]{}, err
	}
	b, err = applyLifecycle(b, "unsubscribed", p.Unsubscribed,
		Builder[T].UnsubscribedMessage, Builder[T].UnsubscribedLevel)
	if err != nil {
		return Builder[T]{}, err
	}

	if p.ShowMemory {
		b = b.ShowMemory()
	}
	if p.ShowStack {
		b = b.ShowStackTrace()
	}
	if p.ShowSubID {
		b = b.ShowSubscriptionID()
	}

	for i, entry := range p.Stages {
		if len(entry) != 1 {
			return Builder[T]{}, fmt.Errorf("stages[%d]: want exactly one stage key, got %d", i, len(entry))
		}
		for key, node := range entry {
			b, err = applyStage(b, i, key, node)
			if err != nil {
				return Builder[T]{}, err
			}
		}
	}

	return b, nil
}

// FromYAMLFile is FromYAML over the contents of path.
func FromYAMLFile[T any](path string) (Builder[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Builder[T]{}, fmt.Errorf("read profile: %w", err)
	}
	return FromYAML[T](data)
}

func applyKind[T any](
	b Builder[T],
	section string,
	k *yamlKind,
	setEnabled func(Builder[T], bool) Builder[T],
	setLevel func(Builder[T], observability.Level) Builder[T],
	setPrefix func(Builder[T], string) Builder[T],
	setFormat func(Builder[T], string) Builder[T],
) (Builder[T], error) {
	if k == nil {
		return b, nil
	}
	if k.Enabled != nil {
		b = setEnabled(b, *k.Enabled)
	}
	if k.Level != nil {
		lvl, err := observability.ParseLevel(*k.Level)
		if err != nil {
			return b, fmt.Errorf("%s: %w", section, err)
		}
		b = setLevel(b, lvl)
	}
	if k.Prefix != nil {
		b = setPrefix(b, *k.Prefix)
	}
	if k.Format != nil {
		b = setFormat(b, *k.Format)
	}
	return b, nil
}

func applyLifecycle[T any](
	b Builder[T],
	section string,
	l *yamlLifecycle,
	setMessage func(Builder[T], string) Builder[T],
	setLevel func(Builder[T], observability.Level) Builder[T],
) (Builder[T], error) {
	if l == nil {
		return b, nil
	}
	if l.Message != nil {
		b = setMessage(b, *l.Message)
	}
	if l.Level != nil {
		lvl, err := observability.ParseLevel(*l.Level)
		if err != nil {
			return b, fmt.Errorf("%s: %w", section, err)
		}
		b = setLevel(b, lvl)
	}
	return b, nil
}

func applyStage[T any](b Builder[T], i int, key string, node yaml.Node) (Builder[T], error) {
	switch key {
	case "every":
		var n int
		if err := node.Decode(&n); err != nil {
			return b, fmt.Errorf("stages[%d] every: %w", i, err)
		}
		return b.Every(n), nil
	case "count":
		label := ""
		if node.Tag != "!!null" {
			if err := node.Decode(&label); err != nil {
				return b, fmt.Errorf("stages[%d] count: %w", i, err)
			}
		}
		if label == "" {
			return b.ShowCount(), nil
		}
		return b.ShowCountAs(label), nil
	case "start":
		var k int64
		if err := node.Decode(&k); err != nil {
			return b, fmt.Errorf("stages[%d] start: %w", i, err)
		}
		return b.Start(k), nil
	case "finish":
		var k int64
		if err := node.Decode(&k); err != nil {
			return b, fmt.Errorf("stages[%d] finish: %w", i, err)
		}
		return b.Finish(k), nil
	case "next":
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return b, fmt.Errorf("stages[%d] next: %w", i, err)
		}
		return b.OnNext(enabled), nil
	case "error":
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return b, fmt.Errorf("stages[%d] error: %w", i, err)
		}
		return b.OnError(enabled), nil
	default:
		return b, fmt.Errorf("stages[%d]: unknown stage %q", i, key)
	}
}
