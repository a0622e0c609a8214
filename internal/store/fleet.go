package store

import (
	"context"
	"strconv"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"gorm.io/gorm"
)

// ListCustomers returns all customers
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return nil, errs.Persistence("list customers", err)
	}
	return customers, nil
}

// CreateCustomer persists a new customer
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return errs.Persistence("create customer", err)
	}
	return nil
}

// ListDrivers returns all drivers
func (s *Store) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	var drivers []models.Driver
	if err := s.db.WithContext(ctx).Order("id").Find(&drivers).Error; err != nil {
		return nil, errs.Persistence("list drivers", err)
	}
	return drivers, nil
}

// CreateDriver persists a new driver
func (s *Store) CreateDriver(ctx context.Context, d *models.Driver) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return errs.Persistence("create driver", err)
	}
	return nil
}

// ListVehicles returns all vehicles
func (s *Store) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := s.db.WithContext(ctx).Order("id").Find(&vehicles).Error; err != nil {
		return nil, errs.Persistence("list vehicles", err)
	}
	return vehicles, nil
}

// CreateVehicle persists a new vehicle
func (s *Store) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return errs.Persistence("create vehicle", err)
	}
	return nil
}

// GetCustomer loads a customer by id
func (s *Store) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate("customer", itoa(id), err)
	}
	return &c, nil
}

// GetDriver loads a driver by id
func (s *Store) GetDriver(ctx context.Context, id uint) (*models.Driver, error) {
	var d models.Driver
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, translate("driver", itoa(id), err)
	}
	return &d, nil
}

// GetVehicle loads a vehicle by id
func (s *Store) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate("vehicle", itoa(id), err)
	}
	return &v, nil
}

// ActiveAssignmentFor returns the job order's active assignment, or nil
func (s *Store) ActiveAssignmentFor(ctx context.Context, jobOrderID uint) (*models.Assignment, error) {
	return activeAssignmentFor(s.db.WithContext(ctx), jobOrderID)
}

func activeAssignmentFor(tx *gorm.DB, jobOrderID uint) (*models.Assignment, error) {
	var a models.Assignment
	err := tx.Where("job_order_id = ? AND status = ?", jobOrderID, models.AssignmentStatusActive).
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errs.Persistence("load active assignment", err)
	}
	return &a, nil
}

// LatestAssignmentFor returns the most recently assigned record for the job
// order regardless of status. Audit views use this so a cancelled job order
// still shows who was assigned.
func (s *Store) LatestAssignmentFor(ctx context.Context, jobOrderID uint) (*models.Assignment, error) {
	var a models.Assignment
	err := s.db.WithContext(ctx).
		Where("job_order_id = ?", jobOrderID).
		Order("assigned_at DESC").
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errs.Persistence("load latest assignment", err)
	}
	return &a, nil
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
