package project

import "time"

type ProjectOption func(*Project)

func (p *Project) Apply(now time.Time, options ...ProjectOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.UpdatedAt = now
}

func WithName(name string) ProjectOption {
	return func(p *Project) {
		p.Name = name
	}
}

func WithDescription(description string) ProjectOption {
	return func(p *Project) {
		p.Description = description
	}
}

func WithStatus(status Status) ProjectOption {
	if status == "" {
		return nil
	}
	return func(p *Project) {
		p.Status = status
	}
}

// nil очищает дату
func WithStartDate(date *time.Time) ProjectOption {
	return func(p *Project) {
		p.StartDate = date
	}
}

func WithEndDate(date *time.Time) ProjectOption {
	return func(p *Project) {
		p.EndDate = date
	}
}
