package tuning

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gainctl/internal/dashboard"
	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/hardware"
)

var baseLabels = []string{
	LabelP, LabelI, LabelD, LabelFF, LabelIntegralZone,
	LabelMaxOutput, LabelMinOutput, LabelMaxVelocity, LabelMaxAcceleration,
}

var _ = Describe("MotorTuner", func() {
	var (
		table *dashboard.Table
		act   *hardware.Recorder
		gains *gain.Profile
	)

	BeforeEach(func() {
		table = dashboard.NewTable()
		act = hardware.NewRecorder()
		gains = gain.NewPIDF(0.5, 0.01, 0.2, 0.05).SetRange(0.8)
	})

	valueOf := func(slot int, p hardware.Param) float64 {
		v, ok := act.Value(slot, p)
		Expect(ok).To(BeTrue(), "no value written for %s", p)
		return v
	}

	It("requires gains and an actuator", func() {
		_, err := NewMotorTuner(table, nil, nil, Options{})
		Expect(err).To(MatchError(ErrNilGains))

		t, err := NewMotorTuner(table, gains, nil, Options{})
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Bind(nil, 0)
		Expect(err).To(MatchError(ErrNoActuator))
	})

	It("binds the base entries for a basic configuration", func() {
		t, err := NewMotorTuner(table, gains, nil, Options{})
		Expect(err).NotTo(HaveOccurred())

		extra, err := t.Bind(act, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(extra).To(BeFalse())
		Expect(t.Labels()).To(ConsistOf(baseLabels))

		v, _ := table.Get(LabelMinOutput)
		Expect(v).To(Equal(-0.8))
		v, _ = table.Get(LabelMaxVelocity)
		Expect(v).To(BeZero())
		Expect(act.Calls()).To(BeEmpty())
	})

	It("pushes gain edits to the bound slot", func() {
		t, err := NewMotorTuner(table, gains, nil, Options{})
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Bind(act, 2)
		Expect(err).NotTo(HaveOccurred())

		table.Set(LabelP, 2.5)
		table.Set(LabelFF, 0.1)
		table.Set(LabelMinOutput, -0.6)

		Expect(gains.P()).To(Equal(2.5))
		Expect(gains.FF()).To(Equal(0.1))
		Expect(gains.Range()).To(Equal(0.6))
		Expect(valueOf(2, hardware.ParamP)).To(Equal(2.5))
		Expect(valueOf(2, hardware.ParamF)).To(Equal(0.1))
		Expect(valueOf(2, hardware.ParamPeakOutputReverse)).To(Equal(-0.6))
		for _, c := range act.Calls() {
			Expect(c.Slot).To(Equal(2))
			Expect(c.Timeout).To(Equal(gain.DefaultTimeout))
		}
	})

	It("truncates the integral zone in storage and on the device", func() {
		motion := gain.NewMotion(gain.Basic)
		t, err := NewMotorTuner(table, gains, motion, Options{})
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Bind(act, 0)
		Expect(err).NotTo(HaveOccurred())

		table.Set(LabelIntegralZone, 12.7)

		iz, ok := motion.IntegralZone()
		Expect(ok).To(BeTrue())
		Expect(iz).To(Equal(12.0))
		Expect(valueOf(0, hardware.ParamIntegralZone)).To(Equal(12.0))
	})

	It("binds S curve strength for motion magic", func() {
		motion := gain.NewMotion(gain.MotionMagic).SetSCurveStrength(3).SetMaxVelocity(1200)
		motion.Timeout = 25 * time.Millisecond
		t, err := NewMotorTuner(table, gains, motion, Options{})
		Expect(err).NotTo(HaveOccurred())

		extra, err := t.Bind(act, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(extra).To(BeTrue())
		Expect(t.Labels()).To(ContainElement(LabelSCurveStrength))
		Expect(t.Labels()).NotTo(ContainElement(LabelMinVelocity))

		v, _ := table.Get(LabelMaxVelocity)
		Expect(v).To(Equal(1200.0))

		table.Set(LabelSCurveStrength, 5.9)
		s, _ := motion.SCurveStrength()
		Expect(s).To(Equal(5))
		Expect(valueOf(0, hardware.ParamSCurveStrength)).To(Equal(5.0))
		Expect(act.Calls()[0].Timeout).To(Equal(25 * time.Millisecond))
	})

	It("binds minimum velocity for smart motion", func() {
		motion := gain.NewMotion(gain.SmartMotion).SetMinVelocity(40)
		t, err := NewMotorTuner(table, gains, motion, Options{})
		Expect(err).NotTo(HaveOccurred())

		extra, err := t.Bind(act, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(extra).To(BeTrue())
		Expect(t.Labels()).To(HaveLen(len(baseLabels) + 1))

		table.Set(LabelMinVelocity, 55)
		mv, _ := motion.MinVelocity()
		Expect(mv).To(Equal(55.0))
		Expect(valueOf(0, hardware.ParamMinVelocity)).To(Equal(55.0))
	})

	It("drives a profile sync's gains and the software evaluator together", func() {
		sync, err := hardware.NewProfileSync(act, hardware.Options{}, gains, gain.NewPID(0.1, 0, 0))
		Expect(err).NotTo(HaveOccurred())
		act.Clear()

		slot0, err := sync.Store().Profile(0)
		Expect(err).NotTo(HaveOccurred())
		t, err := NewMotorTuner(table, slot0, nil, Options{})
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Bind(act, 0)
		Expect(err).NotTo(HaveOccurred())

		table.Set(LabelD, 0.4)

		Expect(gains.D()).To(Equal(0.4))
		Expect(act.Count(hardware.CallConfigure)).To(Equal(1))
		Expect(act.Count(hardware.CallSelectSlot)).To(BeZero())

		Expect(t.Unbind(true)).To(Succeed())
		table.Set(LabelD, 0.9)
		Expect(gains.D()).To(Equal(0.4))
	})
})
