package tuning

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gainctl/internal/dashboard"
	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/hardware"
)

var _ = Describe("Bridge", func() {
	var (
		table  *dashboard.Table
		bridge *Bridge
		errs   []error
	)

	BeforeEach(func() {
		table = dashboard.NewTable()
		errs = nil
		var err error
		bridge, err = NewBridge(table, Options{
			OnError: func(_ string, err error) { errs = append(errs, err) },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a store", func() {
		_, err := NewBridge(nil, Options{})
		Expect(err).To(MatchError(ErrNilStore))
	})

	It("rejects an empty label", func() {
		Expect(bridge.BindField("", 1, nil, nil)).To(MatchError(ErrEmptyLabel))
		Expect(bridge.Initialized()).To(BeFalse())
	})

	It("publishes the initial value without running updaters", func() {
		calls := 0
		Expect(bridge.BindField("P Gain", 1.0, func(float64) { calls++ }, nil)).To(Succeed())

		v, ok := table.Get("P Gain")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1.0))
		Expect(calls).To(BeZero())
		Expect(bridge.Initialized()).To(BeTrue())
	})

	It("forwards an edit to storage then actuator", func() {
		p := gain.NewPID(1, 0, 0)
		act := hardware.NewRecorder()
		var order []string

		Expect(bridge.BindField("P Gain", p.P(),
			func(v float64) {
				order = append(order, "storage")
				p.SetP(v)
			},
			func(v float64) error {
				order = append(order, "actuator")
				return act.Configure(0, hardware.ParamP, v, gain.DefaultTimeout)
			})).To(Succeed())

		table.Set("P Gain", 2.5)

		Expect(order).To(Equal([]string{"storage", "actuator"}))
		Expect(p.P()).To(Equal(2.5))
		v, ok := act.Value(0, hardware.ParamP)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2.5))
	})

	It("tolerates nil updaters", func() {
		Expect(bridge.BindField("x", 0, nil, nil)).To(Succeed())
		Expect(func() { table.Set("x", 1) }).NotTo(Panic())
	})

	It("reports actuator failures to the error hook", func() {
		boom := errors.New("bus off")
		stored := 0.0
		Expect(bridge.BindField("P Gain", 1,
			func(v float64) { stored = v },
			func(float64) error { return boom })).To(Succeed())

		table.Set("P Gain", 3)

		Expect(stored).To(Equal(3.0))
		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(MatchError(boom))
		Expect(errs[0].Error()).To(ContainSubstring("P Gain"))
	})

	It("calls the edit hook after the updaters", func() {
		var edits []string
		b, err := NewBridge(table, Options{OnEdit: func(label string, _ float64) { edits = append(edits, label) }})
		Expect(err).NotTo(HaveOccurred())
		Expect(b.BindField("D Gain", 0, nil, nil)).To(Succeed())

		table.Set("D Gain", 0.2)

		Expect(edits).To(Equal([]string{"D Gain"}))
	})

	It("overwrites a rebound label", func() {
		first, second := 0, 0
		Expect(bridge.BindField("P Gain", 1, func(float64) { first++ }, nil)).To(Succeed())
		Expect(bridge.BindField("P Gain", 2, func(float64) { second++ }, nil)).To(Succeed())

		table.Set("P Gain", 5)

		Expect(first).To(BeZero())
		Expect(second).To(Equal(1))
		Expect(table.Listeners("P Gain")).To(Equal(1))
		Expect(bridge.Labels()).To(Equal([]string{"P Gain"}))
	})

	Describe("Unbind", func() {
		var p *gain.Profile

		BeforeEach(func() {
			p = gain.NewPID(1, 0, 0)
			Expect(bridge.BindField("P Gain", 1, func(v float64) { p.SetP(v) }, nil)).To(Succeed())
			Expect(bridge.BindField("I Gain", 0, func(v float64) { p.SetI(v) }, nil)).To(Succeed())
		})

		It("stops updates and removes entries", func() {
			Expect(bridge.Unbind(true)).To(Succeed())

			table.Set("P Gain", 9)

			Expect(p.P()).To(Equal(1.0))
			Expect(bridge.Initialized()).To(BeFalse())
			Expect(table.Labels()).To(Equal([]string{"P Gain"}))
		})

		It("keeps entries when asked", func() {
			Expect(bridge.Unbind(false)).To(Succeed())

			Expect(table.Labels()).To(ConsistOf("P Gain", "I Gain"))
			Expect(table.Listeners("P Gain")).To(BeZero())
		})

		It("is idempotent", func() {
			Expect(bridge.Unbind(true)).To(Succeed())
			Expect(bridge.Unbind(true)).To(Succeed())
			Expect(bridge.Unbind(false)).To(Succeed())
		})

		It("collects delete failures", func() {
			Expect(table.Delete("P Gain")).To(Succeed())
			Expect(table.Delete("I Gain")).To(Succeed())

			err := bridge.Unbind(true)

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dashboard.ErrUnknownLabel)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("I Gain"))
			Expect(err.Error()).To(ContainSubstring("P Gain"))
			Expect(bridge.Initialized()).To(BeFalse())
		})
	})

	It("works through a dashboard tab", func() {
		tab := dashboard.NewTab(table, "arm")
		b, err := NewBridge(tab, Options{})
		Expect(err).NotTo(HaveOccurred())
		got := 0.0
		Expect(b.BindField("P Gain", 1, func(v float64) { got = v }, nil)).To(Succeed())

		table.Set("arm/P Gain", 4)

		Expect(got).To(Equal(4.0))
		Expect(b.Unbind(true)).To(Succeed())
		Expect(table.Labels()).To(BeEmpty())
	})
})
