package scenario_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

type diagnosticsRecorder struct {
	pid   *control.PID
	steps []control.Diagnostics
}

func (r *diagnosticsRecorder) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	r.steps = append(r.steps, r.pid.Diagnostics())
}

var gainGrid = []control.Gains{
	{Kp: 1},
	{Kp: 0, Ki: 0, Kd: 0},
	{Kp: 2, Ki: 1, Kd: 0.1},
	{Kp: -5, Ki: -1, Kd: -0.5},
	{Kp: 1e4, Ki: 1e3, Kd: 50},
	{Kp: 1e6, Ki: -1e6, Kd: -1e3},
}

var _ = Describe("SystemType", func() {
	It("round-trips every wire identifier", func() {
		for _, s := range scenario.All() {
			parsed, err := scenario.ParseSystemType(s.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(s))
		}
	})

	It("rejects unknown identifiers", func() {
		_, err := scenario.ParseSystemType("invalid_system")
		Expect(err).To(MatchError(scenario.ErrInvalidSystemType))

		_, err = scenario.Lookup(scenario.SystemType(0))
		Expect(err).To(MatchError(scenario.ErrInvalidSystemType))
	})

	It("decodes from JSON text", func() {
		var payload struct {
			System scenario.SystemType `json:"system"`
		}
		Expect(json.Unmarshal([]byte(`{"system":"rlc_circuit"}`), &payload)).To(Succeed())
		Expect(payload.System).To(Equal(scenario.RLCCircuit))
		Expect(json.Unmarshal([]byte(`{"system":"boiler"}`), &payload)).To(MatchError(scenario.ErrInvalidSystemType))
	})
})

var _ = Describe("Simulate", func() {
	ctx := context.Background()

	It("fails with ErrInvalidSystemType for an unknown system", func() {
		out, err := scenario.Simulate(ctx, "invalid_system", control.Gains{Kp: 1})
		Expect(err).To(MatchError(scenario.ErrInvalidSystemType))
		Expect(out).To(BeNil())
	})

	It("produces the documented DC motor series", func() {
		out, err := scenario.Simulate(ctx, "dc_motor", control.Gains{Kp: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(out.Time).To(HaveLen(1601))
		Expect(out.Response).To(HaveLen(1601))
		Expect(out.Control).To(HaveLen(1601))
		Expect(out.Reference).To(HaveLen(1601))
		Expect(out.Time[0]).To(Equal(0.0))
		Expect(out.Time[1]).To(Equal(0.0025))
		Expect(out.Time[1600]).To(Equal(4.0))
		Expect(out.Response[0]).To(Equal(0.0))
		Expect(out.Reference).To(HaveEach(1.0))
	})

	It("records control and reference for the motor and RLC only", func() {
		for _, s := range scenario.All() {
			out, err := scenario.Run(ctx, s, control.Gains{Kp: 1})
			Expect(err).NotTo(HaveOccurred())
			if s == scenario.InvertedPendulum {
				Expect(out.Control).To(BeNil())
				Expect(out.Reference).To(BeNil())
			} else {
				Expect(out.Control).To(HaveLen(len(out.Time)))
				Expect(out.Reference).To(HaveLen(len(out.Time)))
			}
		}
	})

	DescribeTable("keeps every series aligned and bounded",
		func(s scenario.SystemType) {
			sc, err := scenario.Lookup(s)
			Expect(err).NotTo(HaveOccurred())

			for _, g := range gainGrid {
				out, err := scenario.Run(ctx, s, g)
				Expect(err).NotTo(HaveOccurred())

				Expect(out.Time).To(HaveLen(sc.Samples()))
				Expect(out.Response).To(HaveLen(sc.Samples()))
				Expect(out.Time[0]).To(Equal(0.0))
				for i := 1; i < len(out.Time); i++ {
					Expect(out.Time[i]).To(BeNumerically("~", out.Time[i-1]+sc.Dt, 1e-9))
				}
				for _, y := range out.Response {
					Expect(y).To(BeNumerically(">=", sc.Output.Min))
					Expect(y).To(BeNumerically("<=", sc.Output.Max))
				}
				for _, u := range out.Control {
					Expect(u).To(BeNumerically(">=", sc.Actuator.Min))
					Expect(u).To(BeNumerically("<=", sc.Actuator.Max))
				}
				for name, v := range out.Metrics {
					Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse(), "metric %s", name)
				}
			}
		},
		Entry("dc_motor", scenario.DCMotor),
		Entry("inverted_pendulum", scenario.InvertedPendulum),
		Entry("rlc_circuit", scenario.RLCCircuit),
	)

	DescribeTable("is reproducible",
		func(s scenario.SystemType) {
			g := control.Gains{Kp: 3, Ki: 1.5, Kd: 0.2}
			first, err := scenario.Run(ctx, s, g)
			Expect(err).NotTo(HaveOccurred())
			second, err := scenario.Run(ctx, s, g)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		},
		Entry("dc_motor", scenario.DCMotor),
		Entry("inverted_pendulum", scenario.InvertedPendulum),
		Entry("rlc_circuit", scenario.RLCCircuit),
	)

	It("approaches a sub-unity level for a proportional motor loop", func() {
		out, err := scenario.Simulate(ctx, "dc_motor", control.Gains{Kp: 1})
		Expect(err).NotTo(HaveOccurred())

		for i := 1; i < len(out.Response); i++ {
			Expect(out.Response[i]).To(BeNumerically(">=", out.Response[i-1]))
		}
		last := out.Response[len(out.Response)-1]
		Expect(last).To(BeNumerically("~", 1/2.25, 1e-2))
		Expect(out.Control).To(HaveEach(BeNumerically("<=", 10)))
	})

	It("settles the RLC circuit below the reference for a proportional loop", func() {
		out, err := scenario.Simulate(ctx, "rlc_circuit", control.Gains{Kp: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(out.Response).To(HaveEach(BeNumerically("<", 1)))
		Expect(out.Response[len(out.Response)-1]).To(BeNumerically("~", 0.1, 2e-2))
		Expect(out.Control).To(HaveEach(BeNumerically("<=", 10)))
	})

	It("pins the uncontrolled pendulum at the guardrail", func() {
		out, err := scenario.Simulate(ctx, "inverted_pendulum", control.Gains{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Response[0]).To(Equal(1.0))
		Expect(out.Response[len(out.Response)-1]).To(Equal(10.0))
	})

	It("balances the pendulum with PD gains", func() {
		out, err := scenario.Simulate(ctx, "inverted_pendulum", control.Gains{Kp: 20, Kd: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(math.Abs(out.Response[len(out.Response)-1])).To(BeNumerically("<", 0.05))
		Expect(out.Metrics).To(HaveKey(metrics.SettlingTimeName))
	})

	It("returns the context error when cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := scenario.Run(cancelled, scenario.DCMotor, control.Gains{Kp: 1})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Controller state", func() {
	lookup := func(s scenario.SystemType) scenario.Scenario {
		sc, err := scenario.Lookup(s)
		Expect(err).NotTo(HaveOccurred())
		return sc
	}

	run := func(sc scenario.Scenario, g control.Gains) []control.Diagnostics {
		pid := sc.Controller(g)
		rec := &diagnosticsRecorder{pid: pid}
		sim := dynamo.New(sc.Plant(), sc.Integrator(), pid)
		sim.SetGuardrail(dynamo.Guardrail{Limits: sc.Output})
		sim.AddObserver(rec)

		_, err := sim.Run(context.Background(), sc.Initial.Clone(), sc.Config())
		Expect(err).NotTo(HaveOccurred())
		return rec.steps
	}

	It("starts with a zero filtered derivative", func() {
		for _, s := range scenario.All() {
			steps := run(lookup(s), control.Gains{Kp: 2, Ki: 1, Kd: 3})
			Expect(steps[0].FilteredDerivative).To(Equal(0.0))
		}
	})

	It("holds the integral while saturated in the error direction", func() {
		steps := run(lookup(scenario.DCMotor), control.Gains{Kp: 100, Ki: 10})

		held := 0
		for _, d := range steps {
			if d.Unsaturated > 10 && d.Error > 0 {
				Expect(d.Held).To(BeTrue())
				Expect(d.Integral).To(Equal(d.PrevIntegral))
				held++
			}
		}
		Expect(held).To(BeNumerically(">", 0))
	})

	It("bounds the motor integral", func() {
		sc := lookup(scenario.DCMotor)
		sc.Duration = 120
		steps := run(sc, control.Gains{Ki: 1e-9})
		for _, d := range steps {
			Expect(d.Integral).To(BeNumerically("<=", 100))
		}
		Expect(steps[len(steps)-1].Integral).To(Equal(100.0))
	})

	It("leaves the RLC integral unbounded", func() {
		sc := lookup(scenario.RLCCircuit)
		sc.Duration = 120
		steps := run(sc, control.Gains{Ki: 1e-9})
		Expect(steps[len(steps)-1].Integral).To(BeNumerically(">", 100))
	})
})

var _ = Describe("Scenario constants", func() {
	It("validates every built-in scenario", func() {
		for _, s := range scenario.All() {
			sc, err := scenario.Lookup(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(sc.Validate()).To(Succeed())
			Expect(sc.Samples()).To(Equal(1601))
		}
	})

	It("rejects adjusted constants that cannot run", func() {
		sc, _ := scenario.Lookup(scenario.RLCCircuit)
		sc.Alpha = 1
		Expect(sc.Validate()).To(MatchError(scenario.ErrInvalidScenario))

		sc, _ = scenario.Lookup(scenario.RLCCircuit)
		sc.Actuator.Min = sc.Actuator.Max
		Expect(sc.Validate()).To(MatchError(scenario.ErrInvalidScenario))

		sc, _ = scenario.Lookup(scenario.RLCCircuit)
		sc.Initial = dynamo.State{0}
		_, err := sc.Run(context.Background(), control.Gains{Kp: 1})
		Expect(err).To(MatchError(scenario.ErrInvalidScenario))

		sc, _ = scenario.Lookup(scenario.DCMotor)
		sc.Initial = dynamo.State{20}
		Expect(sc.Validate()).To(MatchError(ContainSubstring("initial output 20 outside")))
		_, err = sc.Run(context.Background(), control.Gains{Kp: 1})
		Expect(err).To(MatchError(scenario.ErrInvalidScenario))
	})

	It("aborts with the failing step when the plant state stops being finite", func() {
		sc, _ := scenario.Lookup(scenario.InvertedPendulum)
		sc.Initial = dynamo.State{1, math.NaN()}
		Expect(sc.Validate()).To(Succeed())

		out, err := sc.Run(context.Background(), control.Gains{Kp: 1})
		Expect(out).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(0))
		Expect(simErr.State[0]).To(Equal(sc.Output.Max))
	})

	It("hands out independent copies", func() {
		a, _ := scenario.Lookup(scenario.InvertedPendulum)
		a.Initial[0] = 5
		b, _ := scenario.Lookup(scenario.InvertedPendulum)
		Expect(b.Initial[0]).To(Equal(1.0))
	})

	It("runs shorter horizons when adjusted", func() {
		sc, _ := scenario.Lookup(scenario.DCMotor)
		sc.Duration = 1.0
		out, err := sc.Run(context.Background(), control.Gains{Kp: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Time).To(HaveLen(401))
	})
})
