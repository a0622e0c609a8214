// Package assignment manages driver/vehicle/job-order bindings and enforces
// the exclusivity invariants: one active assignment per vehicle, one per job
// order, and a per-driver capacity cap.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service is the assignment manager
type Service struct {
	store *store.Store
	log   *logrus.Entry
}

// New creates the assignment service
func New(st *store.Store) *Service {
	return &Service{
		store: st,
		log:   logrus.WithField("component", "assignment"),
	}
}

// Accept binds a driver (and optionally a vehicle) to a job order. All
// exclusivity checks run inside the same transaction as the insert, so two
// concurrent accepts for the same vehicle cannot both succeed. On success the
// job order moves to assigned and the driver goes on duty.
func (s *Service) Accept(ctx context.Context, jobOrderDoc string, driverID uint, vehicleID *uint, actor string) (*models.Assignment, error) {
	var created models.Assignment

	_, err := s.store.MutateJobOrder(ctx, jobOrderDoc, func(tx *gorm.DB, jo *models.JobOrder) error {
		if !models.CanTransitionJobOrder(jo.Status, models.JobOrderStatusAssigned) {
			return errs.InvalidTransition("job order", string(jo.Status), string(models.JobOrderStatusAssigned))
		}

		var driver models.Driver
		if err := tx.First(&driver, driverID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("driver", fmt.Sprint(driverID))
			}
			return errs.Persistence("load driver", err)
		}

		// Capacity cap: a driver may carry at most five job orders at once.
		var activeCount int64
		err := tx.Model(&models.Assignment{}).
			Where("driver_id = ? AND status = ?", driverID, models.AssignmentStatusActive).
			Count(&activeCount).Error
		if err != nil {
			return errs.Persistence("count driver assignments", err)
		}
		if activeCount >= models.MaxActiveAssignmentsPerDriver {
			return errs.InvariantViolation(fmt.Sprintf(
				"driver %s already holds %d active assignments", driver.Name, activeCount))
		}

		// One active assignment per job order.
		var joCount int64
		err = tx.Model(&models.Assignment{}).
			Where("job_order_id = ? AND status = ?", jo.ID, models.AssignmentStatusActive).
			Count(&joCount).Error
		if err != nil {
			return errs.Persistence("count job order assignments", err)
		}
		if joCount > 0 {
			return errs.InvariantViolation(fmt.Sprintf(
				"job order %s already has an active assignment", jo.DocNumber))
		}

		// One active assignment per vehicle.
		if vehicleID != nil {
			var vehicle models.Vehicle
			if err := tx.First(&vehicle, *vehicleID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return errs.NotFound("vehicle", fmt.Sprint(*vehicleID))
				}
				return errs.Persistence("load vehicle", err)
			}
			var busy models.Assignment
			err := tx.Where("vehicle_id = ? AND status = ?", *vehicleID, models.AssignmentStatusActive).
				First(&busy).Error
			if err == nil {
				return errs.InvariantViolation(fmt.Sprintf(
					"vehicle %s is already committed to another active assignment", vehicle.PlateNumber))
			}
			if err != gorm.ErrRecordNotFound {
				return errs.Persistence("check vehicle assignment", err)
			}
		}

		now := time.Now().UTC()
		created = models.Assignment{
			JobOrderID: jo.ID,
			DriverID:   driverID,
			VehicleID:  vehicleID,
			Status:     models.AssignmentStatusActive,
			AssignedAt: now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return errs.Persistence("create assignment", err)
		}

		jo.Status = models.JobOrderStatusAssigned

		err = tx.Model(&models.Driver{}).
			Where("id = ?", driverID).
			Update("status", models.DriverStatusOnDuty).Error
		if err != nil {
			return errs.Persistence("update driver status", err)
		}

		note := fmt.Sprintf("accepted by driver %s", driver.Name)
		return store.AppendStatusHistory(tx, jo, actor, note, models.TriggerUser)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"job_order": jobOrderDoc,
		"driver_id": driverID,
	}).Info("assignment accepted")
	return &created, nil
}

// Complete marks the driver's assignment on the job order as completed and
// sets the driver back to available when they hold no other active work.
func (s *Service) Complete(ctx context.Context, jobOrderDoc string, driverID uint) (*models.Assignment, error) {
	jo, err := s.store.GetJobOrder(ctx, jobOrderDoc)
	if err != nil {
		return nil, err
	}

	var a models.Assignment
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("job_order_id = ? AND driver_id = ? AND status = ?",
			jo.ID, driverID, models.AssignmentStatusActive).
			First(&a).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("active assignment", jobOrderDoc)
			}
			return errs.Persistence("load assignment", err)
		}

		a.Status = models.AssignmentStatusCompleted
		if err := tx.Save(&a).Error; err != nil {
			return errs.Persistence("complete assignment", err)
		}

		var remaining int64
		err = tx.Model(&models.Assignment{}).
			Where("driver_id = ? AND status = ?", driverID, models.AssignmentStatusActive).
			Count(&remaining).Error
		if err != nil {
			return errs.Persistence("count driver assignments", err)
		}
		if remaining == 0 {
			err = tx.Model(&models.Driver{}).
				Where("id = ?", driverID).
				Update("status", models.DriverStatusAvailable).Error
			if err != nil {
				return errs.Persistence("release driver", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Crew is the driver/vehicle pair shown on a delivery order. It is derived,
// never stored on the dispatch document itself.
type Crew struct {
	Driver           *models.Driver  `json:"driver,omitempty"`
	Vehicle          *models.Vehicle `json:"vehicle,omitempty"`
	AssignmentStatus string          `json:"assignment_status,omitempty"`
}

// ResolveCrew derives the displayed driver/vehicle for a dispatch document.
// Manifest-sourced documents use the manifest's own crew fields. Job-order
// sourced documents use the active assignment, falling back to the most
// recent assignment of any status so audit views keep showing who was
// assigned after a cancellation.
func (s *Service) ResolveCrew(ctx context.Context, do *models.DeliveryOrder) (*Crew, error) {
	switch do.Source.Type {
	case models.SourceManifest:
		mf, err := s.store.GetManifest(ctx, do.Source.ID)
		if err != nil {
			return nil, err
		}
		return s.crewFromIDs(ctx, mf.DriverID, mf.VehicleID, "")
	case models.SourceJobOrder:
		jo, err := s.store.GetJobOrder(ctx, do.Source.ID)
		if err != nil {
			return nil, err
		}
		a, err := s.store.ActiveAssignmentFor(ctx, jo.ID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			a, err = s.store.LatestAssignmentFor(ctx, jo.ID)
			if err != nil {
				return nil, err
			}
		}
		if a == nil {
			return &Crew{}, nil
		}
		return s.crewFromIDs(ctx, &a.DriverID, a.VehicleID, string(a.Status))
	}
	return &Crew{}, nil
}

func (s *Service) crewFromIDs(ctx context.Context, driverID, vehicleID *uint, status string) (*Crew, error) {
	crew := &Crew{AssignmentStatus: status}
	if driverID != nil {
		d, err := s.store.GetDriver(ctx, *driverID)
		if err != nil {
			return nil, err
		}
		crew.Driver = d
	}
	if vehicleID != nil {
		v, err := s.store.GetVehicle(ctx, *vehicleID)
		if err != nil {
			return nil, err
		}
		crew.Vehicle = v
	}
	return crew, nil
}
