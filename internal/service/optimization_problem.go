package service

import (
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/defense-scheduler/internal/dto"
	"github.com/noah-isme/defense-scheduler/internal/models"
	"github.com/noah-isme/defense-scheduler/internal/scheduler"
)

func problemFromPayload(p dto.ProblemPayload) (*scheduler.Problem, error) {
	projects := lo.Map(p.Projects, func(item dto.ProjectPayload, _ int) scheduler.Project {
		return scheduler.Project{
			ID:            item.ID,
			Title:         item.Title,
			Kind:          scheduler.ParseProjectKind(item.Kind),
			ResponsibleID: item.ResponsibleID,
			JuryCount:     item.JuryCount,
		}
	})
	instructors := lo.Map(p.Instructors, func(item dto.InstructorPayload, _ int) scheduler.Instructor {
		return scheduler.Instructor{ID: item.ID, Name: item.Name}
	})
	classrooms := lo.Map(p.Classrooms, func(item dto.ClassroomPayload, _ int) scheduler.Classroom {
		return scheduler.Classroom{ID: item.ID, Capacity: item.Capacity}
	})
	timeslots := lo.Map(p.Timeslots, func(item dto.TimeslotPayload, _ int) scheduler.Timeslot {
		return scheduler.Timeslot{ID: item.ID, Index: item.Index, Start: item.Start}
	})

	problem, err := scheduler.NewProblem(projects, instructors, classrooms, timeslots)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return problem, nil
}

func problemFromSession(data *models.DefenseSessionData) (*scheduler.Problem, error) {
	projects := lo.Map(data.Projects, func(item models.DefenseProject, _ int) scheduler.Project {
		return scheduler.Project{
			ID:            item.ID,
			Title:         item.Title,
			Kind:          scheduler.ParseProjectKind(item.Kind),
			ResponsibleID: item.ResponsibleInstructorID,
			JuryCount:     item.JuryCount,
		}
	})
	instructors := lo.Map(data.Instructors, func(item models.Instructor, _ int) scheduler.Instructor {
		return scheduler.Instructor{ID: item.ID, Name: item.Name}
	})
	classrooms := lo.Map(data.Classrooms, func(item models.Classroom, _ int) scheduler.Classroom {
		return scheduler.Classroom{ID: item.ID, Capacity: item.Capacity}
	})
	timeslots := lo.Map(data.Timeslots, func(item models.Timeslot, _ int) scheduler.Timeslot {
		return scheduler.Timeslot{ID: item.ID, Index: item.SlotIndex, Start: item.StartsAt}
	})
	return scheduler.NewProblem(projects, instructors, classrooms, timeslots)
}

func applyOptions(base scheduler.Options, p *dto.OptionsPayload) scheduler.Options {
	opts := base
	if p == nil {
		return opts
	}
	if p.Algorithm != "" {
		opts.Algorithm = scheduler.Kind(p.Algorithm)
	}
	setIfPresent(&opts.Iterations, p.Iterations)
	setIfPresent(&opts.PopulationSize, p.PopulationSize)
	setIfPresent(&opts.MutationRate, p.MutationRate)
	setIfPresent(&opts.InitialTemperature, p.InitialTemperature)
	setIfPresent(&opts.CoolingRate, p.CoolingRate)
	setIfPresent(&opts.TabuTenure, p.TabuTenure)
	setIfPresent(&opts.NeighborhoodSize, p.NeighborhoodSize)
	setIfPresent(&opts.StallLimit, p.StallLimit)
	setIfPresent(&opts.Restarts, p.Restarts)
	setIfPresent(&opts.Workers, p.Workers)
	setIfPresent(&opts.Seed, p.Seed)
	setIfPresent(&opts.ResolveEachMove, p.ResolveEachMove)
	if p.MaxDurationMs != nil {
		opts.MaxDuration = time.Duration(*p.MaxDurationMs) * time.Millisecond
	}
	if p.PopulationSize != nil && opts.EliteCount >= opts.PopulationSize {
		opts.EliteCount = opts.PopulationSize - 1
	}
	if w := p.Weights; w != nil {
		setIfPresent(&opts.Weights.Coverage, w.Coverage)
		setIfPresent(&opts.Weights.Consecutive, w.Consecutive)
		setIfPresent(&opts.Weights.LoadBalance, w.LoadBalance)
		setIfPresent(&opts.Weights.ClassroomSwitch, w.ClassroomSwitch)
		setIfPresent(&opts.Weights.Gap, w.Gap)
		setIfPresent(&opts.Weights.Conflict, w.Conflict)
		setIfPresent(&opts.Weights.EarlySlot, w.EarlySlot)
		setIfPresent(&opts.Weights.ResponsibleWeight, w.ResponsibleWeight)
		setIfPresent(&opts.Weights.JuryWeight, w.JuryWeight)
	}
	return opts
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
