package simulated

import (
	"context"
	"fmt"
	"math"

	"github.com/aescanero/autogent/pkg/ports"
)

// Quantum simulates measurement outcomes
type Quantum struct{}

// Dispatch runs simulate, run_circuit or optimize
func (Quantum) Dispatch(ctx context.Context, req ports.OperationRequest) (map[string]interface{}, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rng := source("quantum", req.Operation, canonical(req.Params), canonical(req.Inputs))

	switch req.Operation {
	case "simulate", "run_circuit":
		qubits := intParam(req.Params, "qubits", 2)
		shots := intParam(req.Params, "shots", 1024)
		if qubits < 1 || qubits > 16 {
			return nil, fmt.Errorf("qubits must be between 1 and 16, got %d", qubits)
		}
		if shots < 1 {
			return nil, fmt.Errorf("shots must be positive, got %d", shots)
		}

		counts := map[string]interface{}{}
		for i := 0; i < shots; i++ {
			state := fmt.Sprintf("%0*b", qubits, rng.IntN(1<<qubits))
			n, _ := counts[state].(int)
			counts[state] = n + 1
		}
		return map[string]interface{}{"qubits": qubits, "shots": shots, "counts": counts}, nil
	case "optimize":
		iterations := intParam(req.Params, "iterations", 50)
		energy := -1.0 - rng.Float64()
		return map[string]interface{}{
			"iterations": iterations,
			"energy":     energy,
			"converged":  iterations >= 10,
		}, nil
	default:
		return nil, unsupported("quantum", req.Operation)
	}
}

// Federated simulates federated learning rounds
type Federated struct{}

// Dispatch runs train_round, aggregate or evaluate
func (Federated) Dispatch(ctx context.Context, req ports.OperationRequest) (map[string]interface{}, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rng := source("federated", req.Operation, canonical(req.Params), canonical(req.Inputs))
	clients := intParam(req.Params, "clients", 3)
	round := intParam(req.Params, "round", 1)

	switch req.Operation {
	case "train_round":
		loss := math.Exp(-0.3*float64(round)) + 0.05*rng.Float64()
		return map[string]interface{}{"round": round, "clients": clients, "loss": loss}, nil
	case "aggregate":
		return map[string]interface{}{"strategy": "fedavg", "clients": clients, "round": round}, nil
	case "evaluate":
		accuracy := 1 - math.Exp(-0.5*float64(round))*(0.5+0.1*rng.Float64())
		return map[string]interface{}{"round": round, "accuracy": accuracy}, nil
	default:
		return nil, unsupported("federated", req.Operation)
	}
}

// Neuromorphic simulates spiking network runs
type Neuromorphic struct{}

// Dispatch runs simulate or deploy
func (Neuromorphic) Dispatch(ctx context.Context, req ports.OperationRequest) (map[string]interface{}, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	key := canonical(req.Params) + canonical(req.Inputs)

	switch req.Operation {
	case "simulate":
		neurons := intParam(req.Params, "neurons", 100)
		duration := intParam(req.Params, "duration_ms", 1000)
		rng := source("neuromorphic", key)
		rate := 5 + 15*rng.Float64()
		spikes := int(float64(neurons) * rate * float64(duration) / 1000)
		return map[string]interface{}{
			"neurons":     neurons,
			"duration_ms": duration,
			"spikes":      spikes,
			"mean_rate":   rate,
		}, nil
	case "deploy":
		return map[string]interface{}{
			"deployment_id": fmt.Sprintf("snn-%012x", seed("neuromorphic", key)&0xffffffffffff),
			"status":        "deployed",
		}, nil
	default:
		return nil, unsupported("neuromorphic", req.Operation)
	}
}
