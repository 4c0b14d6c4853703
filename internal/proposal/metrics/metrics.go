package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance engine: creation,
// voting, donation, and disbursement volumes plus the create critical path.
type Metrics struct {
	ProposalsCreated   prometheus.Counter
	ProposalsActivated prometheus.Counter
	ProposalsRejected  prometheus.Counter
	ProposalsCompleted prometheus.Counter
	VotesCast          prometheus.Counter
	DonationsRecorded  prometheus.Counter
	DonatedTotal       prometheus.Counter
	DisbursedTotal     prometheus.Counter
	CreateDuration     prometheus.Histogram
}

// New creates a Metrics instance with all governance metrics registered.
func New() *Metrics {
	return &Metrics{
		ProposalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_proposals_created_total",
			Help: "Total number of proposals created",
		}),
		ProposalsActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_proposals_activated_total",
			Help: "Total number of proposals activated (quorum or override)",
		}),
		ProposalsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_proposals_rejected_total",
			Help: "Total number of proposals rejected (explicit or expiry)",
		}),
		ProposalsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_proposals_completed_total",
			Help: "Total number of proposals that disbursed every milestone",
		}),
		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_votes_cast_total",
			Help: "Total number of votes recorded",
		}),
		DonationsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_donations_recorded_total",
			Help: "Total number of confirmed donations",
		}),
		DonatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_donated_base_units_total",
			Help: "Sum of confirmed donation amounts in base units",
		}),
		DisbursedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundgate_disbursed_base_units_total",
			Help: "Sum of milestone disbursements in base units",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundgate_proposal_create_duration_seconds",
			Help:    "Duration of proposal creation (validation plus persistence)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveCreate records the duration of one proposal creation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}
