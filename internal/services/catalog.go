package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"
)

// CatalogService is the plain CRUD surface for clients, trips, buses and
// passengers.
type CatalogService struct {
	Clients      repositories.ClientRepository
	Trips        repositories.TripRepository
	Buses        repositories.BusRepository
	Passengers   repositories.PassengerRepository
	Installments repositories.InstallmentRepository
	RequestID    string
}

func normalizeClient(in models.ClientInput) (models.ClientInput, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	if in.Name == "" {
		return in, domain.ValidationError{Field: "nome", Msg: "nome obrigatório"}
	}
	if in.CPF != "" {
		if !utils.ValidCPF(in.CPF) {
			return in, domain.ValidationError{Field: "cpf", Msg: "CPF inválido"}
		}
		in.CPF = utils.OnlyDigits(in.CPF)
	}
	in.Phone = utils.OnlyDigits(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	return in, nil
}

func (s CatalogService) CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error) {
	in, err := normalizeClient(in)
	if err != nil {
		return models.Client{}, err
	}
	if in.CPF != "" {
		taken, err := s.Clients.ExistsCPF(ctx, in.CPF, 0)
		if err != nil {
			return models.Client{}, err
		}
		if taken {
			return models.Client{}, domain.ConflictError{Resource: "cliente", Msg: "CPF já cadastrado"}
		}
	}
	id, err := s.Clients.Create(ctx, in)
	if err != nil {
		return models.Client{}, fmt.Errorf("salvar cliente: %w", err)
	}
	utils.LogEvent(s.RequestID, "clients", "create", fmt.Sprintf("cliente_id=%d", id))
	return s.Clients.GetByID(ctx, id)
}

func (s CatalogService) UpdateClient(ctx context.Context, id int64, in models.ClientInput) (models.Client, error) {
	in, err := normalizeClient(in)
	if err != nil {
		return models.Client{}, err
	}
	if in.CPF != "" {
		taken, err := s.Clients.ExistsCPF(ctx, in.CPF, id)
		if err != nil {
			return models.Client{}, err
		}
		if taken {
			return models.Client{}, domain.ConflictError{Resource: "cliente", Msg: "CPF já cadastrado"}
		}
	}
	if err := s.Clients.Update(ctx, id, in); err != nil {
		return models.Client{}, err
	}
	return s.Clients.GetByID(ctx, id)
}

func (s CatalogService) ListClients(ctx context.Context, search string, page domain.Pagination) ([]models.Client, domain.Pagination, error) {
	page = page.Normalize()
	list, total, err := s.Clients.List(ctx, utils.NormalizeSpace(search), page)
	page.Total = total
	return list, page, err
}

func (s CatalogService) GetClient(ctx context.Context, id int64) (models.Client, error) {
	return s.Clients.GetByID(ctx, id)
}

func (s CatalogService) DeleteClient(ctx context.Context, id int64) error {
	if err := s.Clients.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "clients", "delete", fmt.Sprintf("cliente_id=%d", id))
	return nil
}

func normalizeTrip(in models.TripInput) (models.TripInput, error) {
	in.Opponent = utils.NormalizeSpace(in.Opponent)
	if in.Opponent == "" {
		return in, domain.ValidationError{Field: "adversario", Msg: "adversário obrigatório"}
	}
	if in.MatchDate.IsZero() {
		return in, domain.ValidationError{Field: "data_jogo", Msg: "data do jogo obrigatória"}
	}
	switch in.VenueType {
	case "":
		in.VenueType = models.TripVenueHome
	case models.TripVenueHome, models.TripVenueAway:
	default:
		return in, domain.ValidationError{Field: "tipo", Msg: "use casa ou fora"}
	}
	if in.DefaultPrice.IsNegative() {
		return in, domain.ValidationError{Field: "valor_padrao", Msg: "valor negativo"}
	}
	if in.Status == "" {
		in.Status = "aberta"
	}
	return in, nil
}

func (s CatalogService) CreateTrip(ctx context.Context, in models.TripInput) (models.Trip, error) {
	in, err := normalizeTrip(in)
	if err != nil {
		return models.Trip{}, err
	}
	id, err := s.Trips.Create(ctx, in)
	if err != nil {
		return models.Trip{}, fmt.Errorf("salvar viagem: %w", err)
	}
	utils.LogEvent(s.RequestID, "trips", "create", fmt.Sprintf("viagem_id=%d adversario=%s", id, in.Opponent))
	return s.Trips.GetByID(ctx, id)
}

func (s CatalogService) UpdateTrip(ctx context.Context, id int64, in models.TripInput) (models.Trip, error) {
	in, err := normalizeTrip(in)
	if err != nil {
		return models.Trip{}, err
	}
	if err := s.Trips.Update(ctx, id, in); err != nil {
		return models.Trip{}, err
	}
	return s.Trips.GetByID(ctx, id)
}

func (s CatalogService) ListTrips(ctx context.Context, start, end time.Time) ([]models.Trip, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, domain.ValidationError{Field: "fim", Msg: "fim anterior ao início"}
	}
	return s.Trips.ListByMatchDate(ctx, start, end)
}

func (s CatalogService) GetTrip(ctx context.Context, id int64) (models.Trip, error) {
	return s.Trips.GetByID(ctx, id)
}

func (s CatalogService) DeleteTrip(ctx context.Context, id int64) error {
	if err := s.Trips.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "trips", "delete", fmt.Sprintf("viagem_id=%d", id))
	return nil
}

func (s CatalogService) CreateBus(ctx context.Context, tripID int64, in models.BusInput) (models.Bus, error) {
	if in.BaseSeats <= 0 {
		return models.Bus{}, domain.ValidationError{Field: "capacidade_onibus", Msg: "capacidade deve ser maior que zero"}
	}
	if in.ExtraSeats < 0 {
		return models.Bus{}, domain.ValidationError{Field: "lugares_extras", Msg: "valor negativo"}
	}
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return models.Bus{}, err
	}
	id, err := s.Buses.Create(ctx, tripID, in)
	if err != nil {
		return models.Bus{}, fmt.Errorf("salvar ônibus: %w", err)
	}
	return s.Buses.GetByID(ctx, id)
}

// UpdateBus refuses to shrink a bus below its current occupancy.
func (s CatalogService) UpdateBus(ctx context.Context, id int64, in models.BusInput) (models.Bus, error) {
	if in.BaseSeats <= 0 || in.ExtraSeats < 0 {
		return models.Bus{}, domain.ValidationError{Field: "capacidade_onibus", Msg: "capacidade inválida"}
	}
	occ, err := s.Buses.Occupancy(ctx, id)
	if err != nil {
		return models.Bus{}, err
	}
	if capacity := in.BaseSeats + in.ExtraSeats; occ > capacity {
		return models.Bus{}, domain.CapacityError{BusID: id, Capacity: capacity, Occupancy: occ}
	}
	if err := s.Buses.Update(ctx, id, in); err != nil {
		return models.Bus{}, err
	}
	return s.Buses.GetByID(ctx, id)
}

func (s CatalogService) ListBuses(ctx context.Context, tripID int64) ([]models.BusOccupancy, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.Buses.ListOccupancy(ctx, tripID)
}

func (s CatalogService) DeleteBus(ctx context.Context, id int64) error {
	if err := s.Buses.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "buses", "delete", fmt.Sprintf("onibus_id=%d", id))
	return nil
}

// ListPassengers returns the trip's passengers with their installments.
func (s CatalogService) ListPassengers(ctx context.Context, tripID int64) ([]models.TripPassenger, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	list, err := s.Passengers.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	byPassenger, err := s.Installments.ListByPassengers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listar parcelas: %w", err)
	}
	for i := range list {
		list[i].Installments = byPassenger[list[i].ID]
	}
	return list, nil
}

func (s CatalogService) Groups(ctx context.Context, tripID int64, search string) ([]PassengerGroup, error) {
	list, err := s.Passengers.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return FilterGroups(DeriveGroups(list), search), nil
}

// BusGroups returns the groups seated on busID, which must belong to tripID.
func (s CatalogService) BusGroups(ctx context.Context, tripID, busID int64) ([]PassengerGroup, error) {
	bus, err := s.Buses.GetByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	if bus.TripID != tripID {
		return nil, domain.NotFoundError{Resource: "ônibus"}
	}
	list, err := s.Passengers.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return GroupsByBus(list, busID), nil
}

// UpdatePassenger edits value, discount, sector and group fields. Bus
// changes go through SeatingService.AssignBus.
func (s CatalogService) UpdatePassenger(ctx context.Context, id int64, in models.PassengerUpdate) (models.TripPassenger, error) {
	if in.Value != nil && in.Value.IsNegative() {
		return models.TripPassenger{}, domain.ValidationError{Field: "valor", Msg: "valor negativo"}
	}
	if in.Discount != nil && in.Discount.IsNegative() {
		return models.TripPassenger{}, domain.ValidationError{Field: "desconto", Msg: "desconto negativo"}
	}
	if err := s.Passengers.Update(ctx, id, in); err != nil {
		return models.TripPassenger{}, err
	}
	p, err := s.Passengers.GetByID(ctx, id)
	if err != nil {
		return models.TripPassenger{}, err
	}
	if utils.NetValue(p.Value, p.Discount).IsNegative() {
		utils.LogEvent(s.RequestID, "passengers", "negative_net",
			fmt.Sprintf("passageiro_id=%d valor=%s desconto=%s", id, p.Value.StringFixed(2), p.Discount.StringFixed(2)))
	}
	return p, nil
}

func (s CatalogService) DeletePassenger(ctx context.Context, id int64) error {
	if err := s.Passengers.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "passengers", "delete", fmt.Sprintf("passageiro_id=%d", id))
	return nil
}
