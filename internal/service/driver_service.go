package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"booze-courier/internal/geo"
	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// driverService implements DriverService.
type driverService struct {
	driverRepo repository.DriverRepository
	userRepo   repository.UserRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDriverService creates a new driver service.
func NewDriverService(driverRepo repository.DriverRepository, userRepo repository.UserRepository, logger zerolog.Logger) DriverService {
	return &driverService{
		driverRepo: driverRepo,
		userRepo:   userRepo,
		logger:     logger.With().Str("service", "driver").Logger(),
		now:        time.Now,
	}
}

// Register creates a driver profile for the user. New drivers start with a
// PENDING certification and stay unavailable until approved. Merchant staff
// accounts cannot double as couriers.
func (s *driverService) Register(ctx context.Context, userID uuid.UUID, vehicleType, licensePlate string) (*model.Driver, error) {
	if strings.TrimSpace(vehicleType) == "" {
		return nil, model.NewValidationError("vehicle type is required")
	}
	if strings.TrimSpace(licensePlate) == "" {
		return nil, model.NewValidationError("license plate is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user not found: %s", userID)
	}
	if !user.Active {
		return nil, model.NewValidationError("user account is deactivated")
	}
	if user.HasRole(model.RoleMerchantAdmin) {
		return nil, model.NewAuthorizationError("merchant staff cannot register as drivers")
	}

	existing, err := s.driverRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check driver profile: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("driver profile already exists for user %s", userID)
	}

	now := s.now()
	driver := &model.Driver{
		ID:                  uuid.New(),
		UserID:              userID,
		VehicleType:         strings.TrimSpace(vehicleType),
		LicensePlate:        strings.TrimSpace(licensePlate),
		Available:           false,
		CertificationStatus: model.CertificationPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// The profile and the user's driver_id reference commit together:
	// ownership checks resolve through the link, so a profile without it
	// would be unreachable to its own driver.
	tx, err := s.driverRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to register driver: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.driverRepo.Create(ctx, tx, driver); err != nil {
		return nil, err
	}
	if err = s.userRepo.LinkDriverProfile(ctx, tx, userID, driver.ID, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("driver_id", driver.ID.String()).Msg("failed to commit registration")
		return nil, fmt.Errorf("failed to register driver: %w", err)
	}

	s.logger.Info().
		Str("driver_id", driver.ID.String()).
		Str("user_id", userID.String()).
		Msg("driver registered")

	return driver, nil
}

// UpdateCertification records the compliance review outcome. Revoking a
// certification also pulls the driver off the road.
func (s *driverService) UpdateCertification(ctx context.Context, driverID uuid.UUID, status model.CertificationStatus) (*model.Driver, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("unknown certification status: %s", status)
	}

	driver, err := s.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	driver.CertificationStatus = status
	if status == model.CertificationRevoked {
		driver.Available = false
	}
	driver.UpdatedAt = s.now()

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("driver_id", driver.ID.String()).
		Str("certification", string(status)).
		Msg("driver certification updated")

	return driver, nil
}

// UpdateAvailability toggles the driver's willingness to take work. Only
// certified drivers can go available.
func (s *driverService) UpdateAvailability(ctx context.Context, driverID uuid.UUID, available bool) (*model.Driver, error) {
	driver, err := s.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if available && !driver.Certified() {
		return nil, model.NewComplianceError("driver %s is not certified", driver.ID)
	}

	driver.Available = available
	driver.UpdatedAt = s.now()

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// UpdateLocation records the driver's current coordinates.
func (s *driverService) UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lon float64) (*model.Driver, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, model.NewValidationError("coordinates out of range: %f, %f", lat, lon)
	}

	driver, err := s.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	driver.CurrentLatitude = &lat
	driver.CurrentLongitude = &lon
	driver.UpdatedAt = s.now()

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// GetByID retrieves a driver profile.
func (s *driverService) GetByID(ctx context.Context, driverID uuid.UUID) (*model.Driver, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, model.NewNotFoundError("driver not found: %s", driverID)
	}
	return driver, nil
}

// GetByUserID retrieves the driver profile linked to a user account.
func (s *driverService) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Driver, error) {
	driver, err := s.driverRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, model.NewNotFoundError("driver not found for user %s", userID)
	}
	return driver, nil
}

// FindNearbyAvailable returns available, certified drivers within
// radiusMeters of the given point, closest first. Drivers with no reported
// location are skipped.
func (s *driverService) FindNearbyAvailable(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Driver, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, model.NewValidationError("coordinates out of range: %f, %f", lat, lon)
	}
	if radiusMeters <= 0 {
		return nil, model.NewValidationError("radius must be positive")
	}

	candidates, err := s.driverRepo.ListAvailableCertified(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}

	radiusKm := geo.MetersToKm(radiusMeters)
	type scored struct {
		driver   model.Driver
		distance float64
	}
	var nearby []scored

	for _, driver := range candidates {
		if !driver.HasLocation() {
			continue
		}
		distance := geo.DistanceKm(lat, lon, *driver.CurrentLatitude, *driver.CurrentLongitude)
		if distance <= radiusKm {
			nearby = append(nearby, scored{driver: driver, distance: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	drivers := make([]model.Driver, len(nearby))
	for i, n := range nearby {
		drivers[i] = n.driver
	}
	return drivers, nil
}
