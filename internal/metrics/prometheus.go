package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/gainctl/internal/hardware"
)

// Instruments exports hardware and tuning activity. It satisfies
// hardware.Observer and supplies tuning.Options hooks.
type Instruments struct {
	configureCalls *prometheus.CounterVec
	slotSwitches   *prometheus.CounterVec
	activeSlot     prometheus.Gauge
	tuningEdits    *prometheus.CounterVec
	tuningValues   *prometheus.GaugeVec
	actuatorErrors *prometheus.CounterVec
}

func NewInstruments(namespace string) *Instruments {
	return &Instruments{
		configureCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "configure_calls_total",
				Help:      "Constants written to the motor controller, by parameter",
			},
			[]string{"param"},
		),
		slotSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_switches_total",
				Help:      "Slot select commands sent to the motor controller, by slot",
			},
			[]string{"slot"},
		),
		activeSlot: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_slot",
				Help:      "Slot most recently selected on the motor controller",
			},
		),
		tuningEdits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuning_edits_total",
				Help:      "Dashboard edits applied, by entry label",
			},
			[]string{"label"},
		),
		tuningValues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tuning_value",
				Help:      "Last value applied for a tuning entry",
			},
			[]string{"label"},
		),
		actuatorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actuator_errors_total",
				Help:      "Failed actuator updates from tuning edits, by entry label",
			},
			[]string{"label"},
		),
	}
}

func (in *Instruments) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		in.configureCalls, in.slotSwitches, in.activeSlot,
		in.tuningEdits, in.tuningValues, in.actuatorErrors,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instruments) Configured(_ int, param hardware.Param) {
	in.configureCalls.WithLabelValues(param.String()).Inc()
}

func (in *Instruments) SlotSelected(slot int) {
	in.slotSwitches.WithLabelValues(strconv.Itoa(slot)).Inc()
	in.activeSlot.Set(float64(slot))
}

func (in *Instruments) Edited(label string, value float64) {
	in.tuningEdits.WithLabelValues(label).Inc()
	in.tuningValues.WithLabelValues(label).Set(value)
}

func (in *Instruments) ActuatorError(label string, _ error) {
	in.actuatorErrors.WithLabelValues(label).Inc()
}
