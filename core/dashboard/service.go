package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/student"
)

var NowFunc = time.Now // mockable

// maxAppliedStudents bounds the student IDs a new State remembers, leaving room in the seen list for live events.
const maxAppliedStudents = maxSeen / 2

type (
	// SendFunc delivers a State to a stream consumer.
	SendFunc func(State) error

	Service interface {
		Summary(ctx context.Context, ownerID string, loc *time.Location) (State, error)
		// Stream sends the owner's State, then every change to it, until ctx is done or `send` fails.
		// Events published while the State loads are applied at most once: contacts are matched against
		// the recent list and students against the newest maxAppliedStudents students.
		Stream(ctx context.Context, ownerID string, loc *time.Location, send SendFunc) error
	}

	service struct {
		contacts contact.Service
		students student.Service
		bus      core.Broadcaster
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(contacts contact.Service, students student.Service, bus core.Broadcaster, logger core.Logger) Service {
	return &service{
		contacts: contacts,
		students: students,
		bus:      bus,
		logger:   logger,
	}
}

func (svc *service) Summary(ctx context.Context, ownerID string, loc *time.Location) (State, error) {
	if loc == nil {
		loc = time.Local
	}
	weekStart := analytics.StartOfWeek(NowFunc().In(loc))

	var sum Summary
	var err error

	// newest first: student events are keyed by student ID, so the latest ones are marked applied
	students, err := svc.students.Query(ctx, ownerID, core.DBOrdering{Field: "created_at", Ascending: false})
	if err != nil {
		return State{}, errors.Wrap(err, "querying students")
	}
	sum.TotalStudents = len(students)
	applied := make([]string, 0, maxAppliedStudents)
	for i := 0; i < len(students) && i < maxAppliedStudents; i++ {
		applied = append(applied, students[i].ID)
	}

	if sum.TotalContacts, err = svc.contacts.Count(ctx, ownerID, time.Time{}); err != nil {
		return State{}, errors.Wrap(err, "counting contacts")
	}
	if sum.ContactsThisWeek, err = svc.contacts.Count(ctx, ownerID, weekStart); err != nil {
		return State{}, errors.Wrap(err, "counting contacts this week")
	}
	if sum.Recent, err = svc.contacts.Recent(ctx, ownerID, contact.RecentFilter{}); err != nil {
		return State{}, errors.Wrap(err, "querying recent contacts")
	}
	return NewState(ownerID, weekStart, sum, applied...), nil
}

func (svc *service) Stream(ctx context.Context, ownerID string, loc *time.Location, send SendFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// subscribe first so that no event is missed while loading the summary
	events, err := svc.bus.Subscribe(ctx)
	if err != nil {
		return errors.Wrap(err, "subscribing to broadcasts")
	}

	state, err := svc.Summary(ctx, ownerID, loc)
	if err != nil {
		return err
	}
	if err := send(state); err != nil {
		return errors.Wrap(err, "sending summary")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if evt.OwnerID != ownerID {
				continue
			}

			// a new week resets the weekly count
			if weekStart := analytics.StartOfWeek(NowFunc().In(state.WeekStart.Location())); !weekStart.Equal(state.WeekStart) {
				if state, err = svc.Summary(ctx, ownerID, loc); err != nil {
					return err
				}
				if err := send(state); err != nil {
					return errors.Wrap(err, "sending summary")
				}
				continue
			}

			next, changed := Apply(state, evt)
			if !changed {
				svc.logger.Debug("dashboard: ignored event "+evt.Name, map[string]interface{}{"id": evt.ID})
				continue
			}
			state = next
			if err := send(state); err != nil {
				return errors.Wrap(err, "sending summary")
			}
		}
	}
}
