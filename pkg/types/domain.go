package types

// HealthStatus is the serving health reported by /health and grpc.health.v1.
type HealthStatus string

const (
	HealthServing    HealthStatus = "SERVING"
	HealthNotServing HealthStatus = "NOT_SERVING"
)

// LifecycleState is the process-wide server state.
type LifecycleState string

const (
	StateStarting LifecycleState = "starting"
	StateServing  LifecycleState = "serving"
	StateDraining LifecycleState = "draining"
	StateStopped  LifecycleState = "stopped"
)

// Language describes a language tag accepted by the translate endpoints.
type Language struct {
	// ISO 639-1 alias accepted in place of the FLORES-200 tag.
	// example: fr
	ISO string `json:"iso" example:"fr"`
	// FLORES-200 tag understood by the model.
	// example: fra_Latn
	Flores string `json:"flores" example:"fra_Latn"`
}
