package sim

import (
	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/sampler"
)

// Run validates cfg and simulates every patient in index order from a single
// random source seeded with cfg.Seed. Nothing is drawn when validation fails.
//
// Draw order: all inter-arrival times, then all population assignments, then
// each patient's attempts in turn.
func Run(cfg model.Config) (model.ResultTable, error) {
	if err := Validate(cfg); err != nil {
		return model.ResultTable{}, err
	}
	profiles, err := compileProfiles(cfg)
	if err != nil {
		return model.ResultTable{}, err
	}
	lookups := Lookups{
		TouchpointsByMethod:        cfg.TouchpointsByMethod,
		AllocatedMinutesByCategory: cfg.AllocatedMinutesByCategory,
	}

	s := sampler.New(cfg.Seed)
	weeks := ArrivalWeeks(s, cfg.NPatients, cfg.LambdaPerWeek)
	pops, err := AssignPopulations(s, cfg.NPatients, cfg.Populations)
	if err != nil {
		return model.ResultTable{}, err
	}

	records := make([]model.PatientRecord, 0, cfg.NPatients)
	for i := 0; i < cfg.NPatients; i++ {
		patient := model.Patient{
			Index:       i,
			Population:  pops[i],
			ArrivalWeek: weeks[i],
			Attempts:    SimulatePatient(s, profiles[pops[i]], lookups, cfg.MaxAttempts),
		}
		records = append(records, BuildRecord(patient))
	}
	return model.ResultTable{Records: records}, nil
}
