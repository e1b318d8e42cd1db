package nn

import (
	"errors"
	"math"
	"testing"
)

type squareSquash struct{}

func (squareSquash) Name() string { return "square" }
func (squareSquash) Value(x float64) float64 { return x * x }
func (squareSquash) Derivative(x float64) float64 { return 2 * x }

func TestRegisterAndGetSquash(t *testing.T) {
	resetSquashRegistryForTests()
	t.Cleanup(resetSquashRegistryForTests)

	if err := RegisterSquash(squareSquash{}); err != nil {
		t.Fatalf("register squash: %v", err)
	}
	s, err := GetSquash("square")
	if err != nil {
		t.Fatalf("get squash: %v", err)
	}
	if got := s.Value(3); got != 9 {
		t.Fatalf("unexpected squash result: got=%f want=9", got)
	}
}

func TestRegisterSquashValidation(t *testing.T) {
	resetSquashRegistryForTests()
	t.Cleanup(resetSquashRegistryForTests)

	if err := RegisterSquash(nil); err == nil {
		t.Fatal("expected nil squash error")
	}
	if err := RegisterSquashWithSpec(SquashSpec{
		Squash:        squareSquash{},
		SchemaVersion: 99,
		CodecVersion:  1,
	}); !errors.Is(err, ErrSquashVersion) {
		t.Fatalf("expected ErrSquashVersion, got: %v", err)
	}
	if err := RegisterSquash(Logistic{}); !errors.Is(err, ErrSquashExists) {
		t.Fatalf("expected ErrSquashExists, got: %v", err)
	}
}

func TestGetSquashDefaultsAndMissing(t *testing.T) {
	s, err := GetSquash("")
	if err != nil {
		t.Fatalf("default squash: %v", err)
	}
	if s.Name() != DefaultSquash {
		t.Fatalf("unexpected default squash: %s", s.Name())
	}
	if _, err := GetSquash("unknown"); !errors.Is(err, ErrSquashNotFound) {
		t.Fatalf("expected ErrSquashNotFound, got: %v", err)
	}
}

func TestListSquashesSorted(t *testing.T) {
	names := ListSquashes()
	want := []string{"hlim", "identity", "logistic", "relu", "tanh"}
	if len(names) != len(want) {
		t.Fatalf("unexpected squashes: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected squashes: %v", names)
		}
	}
}

func TestSquashValues(t *testing.T) {
	tests := []struct {
		name       string
		x          float64
		value      float64
		derivative float64
	}{
		{name: "logistic", x: 0, value: 0.5, derivative: 0.25},
		{name: "tanh", x: 0, value: 0, derivative: 1},
		{name: "identity", x: 2.5, value: 2.5, derivative: 1},
		{name: "hlim", x: 0.3, value: 1, derivative: 1},
		{name: "hlim", x: -0.3, value: 0, derivative: 1},
		{name: "relu", x: -1, value: 0, derivative: 0},
		{name: "relu", x: 3, value: 3, derivative: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := GetSquash(tc.name)
			if err != nil {
				t.Fatalf("get squash: %v", err)
			}
			if got := s.Value(tc.x); math.Abs(got-tc.value) > 1e-9 {
				t.Fatalf("unexpected value: got=%f want=%f", got, tc.value)
			}
			if got := s.Derivative(tc.x); math.Abs(got-tc.derivative) > 1e-9 {
				t.Fatalf("unexpected derivative: got=%f want=%f", got, tc.derivative)
			}
		})
	}
}

func TestLogisticDerivativeFollowsValue(t *testing.T) {
	l := Logistic{}
	for _, x := range []float64{-3, -0.5, 0.7, 4} {
		fx := l.Value(x)
		if got := l.Derivative(x); math.Abs(got-fx*(1-fx)) > 1e-15 {
			t.Fatalf("derivative at %f: got=%f want=%f", x, got, fx*(1-fx))
		}
	}
}
