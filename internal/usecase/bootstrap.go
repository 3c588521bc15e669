package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadReport records the outcome of each collection fetched by a concurrent
// load. A failed collection never prevents the others from loading.
type LoadReport struct {
	mu     sync.Mutex
	Errors map[string]error
}

func (r *LoadReport) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Errors == nil {
		r.Errors = make(map[string]error)
	}
	r.Errors[name] = err
}

// Failed lists the collections that could not be loaded, sorted by name.
func (r *LoadReport) Failed() []string {
	var out []string
	for name, err := range r.Errors {
		if err != nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *LoadReport) Err() error {
	var errs []error
	for _, name := range r.Failed() {
		errs = append(errs, errors.New(name+": "+r.Errors[name].Error()))
	}
	return errors.Join(errs...)
}

type loader struct {
	name string
	load func(context.Context) error
}

func (d *Dispatcher) loadAll(ctx context.Context, loaders ...loader) *LoadReport {
	report := &LoadReport{}
	// plain Group, not WithContext: one failure must not cancel the siblings
	var g errgroup.Group
	for _, l := range loaders {
		l := l
		g.Go(func() error {
			report.record(l.name, l.load(ctx))
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// Bootstrap performs the startup load: categories and courses, fetched
// concurrently and both awaited before returning.
func (d *Dispatcher) Bootstrap(ctx context.Context) *LoadReport {
	return d.loadAll(ctx,
		loader{"categories", d.LoadCategories},
		loader{"courses", d.LoadCourses},
	)
}

// LoadLearnerData fetches everything the student views need.
func (d *Dispatcher) LoadLearnerData(ctx context.Context) *LoadReport {
	return d.loadAll(ctx,
		loader{"enrollments", d.LoadMyEnrollments},
		loader{"progress", d.LoadMyProgress},
		loader{"notifications", d.LoadNotifications},
		loader{"certificates", d.LoadMyCertificates},
		loader{"quizzes", d.LoadQuizzes},
	)
}

// LoadAdminData fetches the user directories shown to administrators.
func (d *Dispatcher) LoadAdminData(ctx context.Context) *LoadReport {
	return d.loadAll(ctx,
		loader{"students", d.LoadStudents},
		loader{"experts", d.LoadExperts},
	)
}
