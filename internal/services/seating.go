package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/events"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/jmoiron/sqlx"
)

// AssignState is the per-assignment state machine.
type AssignState string

const (
	StateIdle             AssignState = "idle"
	StateCheckingConflict AssignState = "checking_conflict"
	StateNoConflict       AssignState = "no_conflict"
	StateConflictFound    AssignState = "conflict_found"
	StateAwaitingChoice   AssignState = "awaiting_choice"
	StateResolving        AssignState = "resolving"
	StateCommitted        AssignState = "committed"
	StateCancelled        AssignState = "cancelled"
)

var assignTransitions = map[AssignState][]AssignState{
	StateIdle:             {StateCheckingConflict},
	StateCheckingConflict: {StateNoConflict, StateConflictFound},
	StateNoConflict:       {StateCommitted},
	StateConflictFound:    {StateAwaitingChoice},
	StateAwaitingChoice:   {StateResolving, StateCancelled},
	StateResolving:        {StateCommitted},
}

func (s AssignState) CanTransitionTo(next AssignState) bool {
	for _, allowed := range assignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Strategy is the operator's answer to a group conflict.
type Strategy string

const (
	StrategyMoveGroupHere  Strategy = "move_group_here"
	StrategySwapSpecific   Strategy = "swap_specific"
	StrategyKeepSeparate   Strategy = "keep_separate"
	StrategyCreateNewGroup Strategy = "create_new_group"
	StrategyCancel         Strategy = "cancel"
)

func (s Strategy) Valid() bool {
	switch s {
	case "", StrategyMoveGroupHere, StrategySwapSpecific, StrategyKeepSeparate, StrategyCreateNewGroup, StrategyCancel:
		return true
	}
	return false
}

// ConflictBus is another bus of the trip already holding members of the group.
type ConflictBus struct {
	BusID   int64                  `json:"onibus_id"`
	Name    string                 `json:"nome"`
	Members []models.TripPassenger `json:"membros"`
}

// GroupConflict is the result of CheckGroupConflicts.
type GroupConflict struct {
	HasConflict bool          `json:"tem_conflito"`
	Buses       []ConflictBus `json:"onibus_conflitantes"`
	CheckFailed bool          `json:"verificacao_falhou"`
	Warning     string        `json:"aviso,omitempty"`
}

func (g GroupConflict) memberIDs() []int64 {
	ids := []int64{}
	for _, b := range g.Buses {
		for _, m := range b.Members {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (g GroupConflict) busOf(passengerID int64) (int64, bool) {
	for _, b := range g.Buses {
		for _, m := range b.Members {
			if m.ID == passengerID {
				return b.BusID, true
			}
		}
	}
	return 0, false
}

// AssignRequest asks to put a passenger on a bus. GroupName/GroupColor, when
// set, are written together with the assignment.
type AssignRequest struct {
	PassengerID     int64    `json:"-"`
	BusID           int64    `json:"onibus_id" binding:"required,gt=0"`
	GroupName       *string  `json:"grupo_nome"`
	GroupColor      *string  `json:"grupo_cor"`
	Strategy        Strategy `json:"estrategia"`
	SwapPassengerID int64    `json:"trocar_com_passageiro_id"`
	NewGroupName    string   `json:"novo_grupo_nome"`
	NewGroupColor   *string  `json:"novo_grupo_cor"`
}

// AssignResult reports where the state machine stopped.
type AssignResult struct {
	State           AssignState    `json:"estado"`
	Transitions     []AssignState  `json:"transicoes"`
	Conflict        *GroupConflict `json:"conflito,omitempty"`
	Moved           []int64        `json:"movidos,omitempty"`
	SwappedWith     int64          `json:"trocado_com,omitempty"`
	RefetchRequired bool           `json:"recarregar"`
	Warning         string         `json:"aviso,omitempty"`
}

func (r *AssignResult) advance(next AssignState) error {
	if !r.State.CanTransitionTo(next) {
		return domain.InternalError{Msg: fmt.Sprintf("transição inválida %s -> %s", r.State, next)}
	}
	r.State = next
	r.Transitions = append(r.Transitions, next)
	return nil
}

// SeatingService checks group conflicts and assigns passengers to buses.
type SeatingService struct {
	Passengers repositories.PassengerRepository
	Buses      repositories.BusRepository
	DB         *sqlx.DB
	Locker     BusLocker
	Events     *events.Recorder
	RequestID  string
}

// CheckGroupConflicts reports the buses other than targetBusID that already
// hold members of (name, color) on the trip. excludeID drops the passenger
// being edited from the count. A failed lookup yields no conflict with
// CheckFailed and a warning, and is logged.
func (s SeatingService) CheckGroupConflicts(ctx context.Context, tripID int64, name, color string, targetBusID, excludeID int64) (GroupConflict, error) {
	name, color = strings.TrimSpace(name), strings.TrimSpace(color)
	if tripID <= 0 {
		return GroupConflict{}, domain.ValidationError{Field: "viagem_id", Msg: "viagem inválida"}
	}
	if name == "" {
		return GroupConflict{Buses: []ConflictBus{}}, nil
	}

	members, err := s.Passengers.ListGroupMembers(ctx, tripID, name, color)
	if err != nil {
		utils.LogWarn(s.RequestID, "seating", "check_conflict_failed",
			fmt.Sprintf("viagem_id=%d grupo=%q err=%v (seguindo sem conflito)", tripID, name, err))
		return GroupConflict{
			Buses:       []ConflictBus{},
			CheckFailed: true,
			Warning:     "não foi possível verificar conflitos do grupo; confira a distribuição manualmente",
		}, nil
	}

	byBus := map[int64][]models.TripPassenger{}
	for _, m := range members {
		if m.ID == excludeID || m.BusID == nil || *m.BusID == targetBusID {
			continue
		}
		byBus[*m.BusID] = append(byBus[*m.BusID], m)
	}
	out := GroupConflict{Buses: []ConflictBus{}}
	if len(byBus) == 0 {
		return out, nil
	}

	names := map[int64]string{}
	if buses, err := s.Buses.ListByTrip(ctx, tripID); err == nil {
		for _, b := range buses {
			names[b.ID] = b.Label()
		}
	}
	for busID, list := range byBus {
		label := names[busID]
		if label == "" {
			label = fmt.Sprintf("Ônibus %d", busID)
		}
		out.Buses = append(out.Buses, ConflictBus{BusID: busID, Name: label, Members: list})
	}
	sort.Slice(out.Buses, func(i, j int) bool { return out.Buses[i].BusID < out.Buses[j].BusID })
	out.HasConflict = true
	return out, nil
}

// AssignBus runs one assignment through the conflict state machine. With a
// conflict and no strategy nothing is written and the result stops at
// awaiting_choice.
func (s SeatingService) AssignBus(ctx context.Context, req AssignRequest) (AssignResult, error) {
	res := AssignResult{State: StateIdle, Transitions: []AssignState{StateIdle}}
	if !req.Strategy.Valid() {
		return res, domain.ValidationError{Field: "estrategia", Msg: "estratégia desconhecida"}
	}

	p, err := s.Passengers.GetByID(ctx, req.PassengerID)
	if err != nil {
		return res, err
	}
	bus, err := s.Buses.GetByID(ctx, req.BusID)
	if err != nil {
		return res, err
	}
	if bus.TripID != p.TripID {
		return res, domain.ValidationError{Field: "onibus_id", Msg: "ônibus não pertence à viagem do passageiro"}
	}

	name, color, _ := p.Group()
	if req.GroupName != nil {
		name = strings.TrimSpace(*req.GroupName)
		color = ""
	}
	if req.GroupColor != nil {
		color = strings.TrimSpace(*req.GroupColor)
	}

	lockIDs := []int64{bus.ID}
	if p.BusID != nil {
		lockIDs = append(lockIDs, *p.BusID)
	}
	var partner models.TripPassenger
	if req.Strategy == StrategySwapSpecific {
		partner, err = s.swapPartner(ctx, p, req.SwapPassengerID)
		if err != nil {
			return res, err
		}
		if partner.BusID != nil {
			lockIDs = append(lockIDs, *partner.BusID)
		}
	}
	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, s.RequestID, lockIDs...)
		if err != nil {
			return res, domain.ConflictError{Resource: "ônibus", Msg: "outra atribuição em andamento, tente novamente", Err: err}
		}
		defer release()
	}

	if err := res.advance(StateCheckingConflict); err != nil {
		return res, err
	}
	conflict, err := s.CheckGroupConflicts(ctx, p.TripID, name, color, bus.ID, p.ID)
	if err != nil {
		return res, err
	}
	if conflict.CheckFailed {
		res.Warning = conflict.Warning
	}

	if !conflict.HasConflict {
		if err := res.advance(StateNoConflict); err != nil {
			return res, err
		}
		if req.Strategy == StrategySwapSpecific {
			if !partner.OnBus(bus.ID) {
				return res, domain.ValidationError{Field: "trocar_com_passageiro_id", Msg: "passageiro escolhido não está no ônibus indicado"}
			}
			if p.BusID == nil {
				return res, domain.ValidationError{Field: "trocar_com_passageiro_id", Msg: "o passageiro não tem ônibus para oferecer na troca"}
			}
			return s.swap(ctx, res, p, partner, bus.ID, *p.BusID, bus, name, color, req.GroupName != nil || req.GroupColor != nil)
		}
		return s.commitSingle(ctx, res, p, bus, name, color, req.GroupName != nil || req.GroupColor != nil)
	}

	if err := res.advance(StateConflictFound); err != nil {
		return res, err
	}
	res.Conflict = &conflict
	if err := res.advance(StateAwaitingChoice); err != nil {
		return res, err
	}

	switch req.Strategy {
	case "":
		utils.LogEvent(s.RequestID, "seating", "conflict_found",
			fmt.Sprintf("passageiro_id=%d onibus_id=%d grupo=%q onibus_conflitantes=%d", p.ID, bus.ID, name, len(conflict.Buses)))
		return res, nil
	case StrategyCancel:
		if err := res.advance(StateCancelled); err != nil {
			return res, err
		}
		return res, nil
	}

	if err := res.advance(StateResolving); err != nil {
		return res, err
	}
	groupChanged := req.GroupName != nil || req.GroupColor != nil
	switch req.Strategy {
	case StrategyMoveGroupHere:
		return s.moveGroupHere(ctx, res, p, bus, conflict, name, color, groupChanged)
	case StrategySwapSpecific:
		partnerBus, ok := conflict.busOf(partner.ID)
		if !ok || !partner.OnBus(partnerBus) {
			return res, domain.ValidationError{Field: "trocar_com_passageiro_id", Msg: "passageiro escolhido não está em um ônibus conflitante"}
		}
		return s.swap(ctx, res, p, partner, partnerBus, bus.ID, bus, name, color, groupChanged)
	case StrategyKeepSeparate:
		return s.commitSingle(ctx, res, p, bus, name, color, groupChanged)
	case StrategyCreateNewGroup:
		newName := strings.TrimSpace(req.NewGroupName)
		if newName == "" {
			return res, domain.ValidationError{Field: "novo_grupo_nome", Msg: "informe o nome do novo grupo"}
		}
		newColor := color
		if req.NewGroupColor != nil {
			newColor = strings.TrimSpace(*req.NewGroupColor)
		}
		if newName == name && newColor == color {
			return res, domain.ValidationError{Field: "novo_grupo_nome", Msg: "o novo grupo deve ter nome ou cor diferente"}
		}
		again, err := s.CheckGroupConflicts(ctx, p.TripID, newName, newColor, bus.ID, p.ID)
		if err != nil {
			return res, err
		}
		if again.HasConflict {
			return res, domain.ConflictError{Resource: "grupo", Msg: fmt.Sprintf("o grupo %q também está em outro ônibus", newName)}
		}
		return s.commitSingle(ctx, res, p, bus, newName, newColor, true)
	}
	return res, domain.ValidationError{Field: "estrategia", Msg: "estratégia desconhecida"}
}

func checkCapacity(bus models.Bus, occupancy, incoming int) error {
	if incoming <= 0 {
		return nil
	}
	if occupancy+incoming > bus.Capacity() {
		return domain.CapacityError{BusID: bus.ID, Capacity: bus.Capacity(), Occupancy: occupancy, Requested: incoming}
	}
	return nil
}

// commitSingle puts p on bus, optionally rewriting its group tag.
func (s SeatingService) commitSingle(ctx context.Context, res AssignResult, p models.TripPassenger, bus models.Bus, name, color string, writeGroup bool) (AssignResult, error) {
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if !p.OnBus(bus.ID) {
			occ, err := s.Buses.WithTx(tx).Occupancy(ctx, bus.ID)
			if err != nil {
				return err
			}
			if err := checkCapacity(bus, occ, 1); err != nil {
				return err
			}
		}
		passengers := s.Passengers.WithTx(tx)
		busID := bus.ID
		if err := passengers.SetBus(ctx, p.ID, &busID); err != nil {
			return err
		}
		if writeGroup {
			if err := passengers.SetGroup(ctx, p.ID, name, color); err != nil {
				return err
			}
		}
		return s.Events.Record(ctx, tx, events.TypeBusAssigned, map[string]any{
			"passageiro_id": p.ID, "onibus_id": bus.ID, "grupo_nome": name, "grupo_cor": color,
		})
	})
	if err != nil {
		return res, err
	}
	utils.LogEvent(s.RequestID, "seating", "assigned", fmt.Sprintf("passageiro_id=%d onibus_id=%d", p.ID, bus.ID))
	if err := res.advance(StateCommitted); err != nil {
		return res, err
	}
	return res, nil
}

// moveGroupHere brings every conflicting member to bus. The move is rejected
// with CapacityError when the bus cannot take them all.
func (s SeatingService) moveGroupHere(ctx context.Context, res AssignResult, p models.TripPassenger, bus models.Bus, conflict GroupConflict, name, color string, writeGroup bool) (AssignResult, error) {
	moving := conflict.memberIDs()
	incoming := len(moving)
	if !p.OnBus(bus.ID) {
		incoming++
	}

	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		occ, err := s.Buses.WithTx(tx).Occupancy(ctx, bus.ID)
		if err != nil {
			return err
		}
		if err := checkCapacity(bus, occ, incoming); err != nil {
			return err
		}
		passengers := s.Passengers.WithTx(tx)
		if _, err := passengers.MoveToBus(ctx, moving, bus.ID); err != nil {
			return err
		}
		busID := bus.ID
		if err := passengers.SetBus(ctx, p.ID, &busID); err != nil {
			return err
		}
		if writeGroup {
			if err := passengers.SetGroup(ctx, p.ID, name, color); err != nil {
				return err
			}
		}
		return s.Events.Record(ctx, tx, events.TypeBusAssigned, map[string]any{
			"passageiro_id": p.ID, "onibus_id": bus.ID, "grupo_nome": name, "grupo_cor": color, "movidos": moving,
		})
	})
	if err != nil {
		var cerr domain.CapacityError
		if errors.As(err, &cerr) {
			utils.LogEvent(s.RequestID, "seating", "move_group_rejected",
				fmt.Sprintf("onibus_id=%d ocupacao=%d solicitados=%d capacidade=%d", bus.ID, cerr.Occupancy, cerr.Requested, cerr.Capacity))
		}
		return res, err
	}
	utils.LogEvent(s.RequestID, "seating", "move_group_here",
		fmt.Sprintf("passageiro_id=%d onibus_id=%d movidos=%d", p.ID, bus.ID, len(moving)))
	res.Moved = moving
	res.RefetchRequired = true
	if err := res.advance(StateCommitted); err != nil {
		return res, err
	}
	return res, nil
}

func (s SeatingService) swapPartner(ctx context.Context, p models.TripPassenger, partnerID int64) (models.TripPassenger, error) {
	if partnerID <= 0 || partnerID == p.ID {
		return models.TripPassenger{}, domain.ValidationError{Field: "trocar_com_passageiro_id", Msg: "escolha outro passageiro para a troca"}
	}
	partner, err := s.Passengers.GetByID(ctx, partnerID)
	if err != nil {
		return models.TripPassenger{}, err
	}
	if partner.TripID != p.TripID {
		return models.TripPassenger{}, domain.ValidationError{Field: "trocar_com_passageiro_id", Msg: "passageiro escolhido é de outra viagem"}
	}
	return partner, nil
}

// swap sends p to pDest and the partner to partnerDest in one transaction.
// With a conflict p joins the group's bus and the partner takes the seat p
// asked for on target. Without one the partner sits on target and gets p's
// current bus. A bus that receives a passenger without losing one is
// capacity-checked.
func (s SeatingService) swap(ctx context.Context, res AssignResult, p, partner models.TripPassenger, pDest, partnerDest int64, target models.Bus, name, color string, writeGroup bool) (AssignResult, error) {
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if partnerDest == target.ID && !p.OnBus(target.ID) {
			occ, err := s.Buses.WithTx(tx).Occupancy(ctx, target.ID)
			if err != nil {
				return err
			}
			if err := checkCapacity(target, occ, 1); err != nil {
				return err
			}
		}
		passengers := s.Passengers.WithTx(tx)
		if err := passengers.SetBus(ctx, p.ID, &pDest); err != nil {
			return err
		}
		if err := passengers.SetBus(ctx, partner.ID, &partnerDest); err != nil {
			return err
		}
		if writeGroup {
			if err := passengers.SetGroup(ctx, p.ID, name, color); err != nil {
				return err
			}
		}
		return s.Events.Record(ctx, tx, events.TypeBusAssigned, map[string]any{
			"passageiro_id": p.ID, "onibus_id": pDest, "trocado_com": partner.ID, "onibus_parceiro": partnerDest,
		})
	})
	if err != nil {
		return res, err
	}
	utils.LogEvent(s.RequestID, "seating", "swap",
		fmt.Sprintf("passageiro_id=%d onibus_destino=%d trocado_com=%d onibus_parceiro=%d", p.ID, pDest, partner.ID, partnerDest))
	res.SwappedWith = partner.ID
	res.RefetchRequired = true
	if err := res.advance(StateCommitted); err != nil {
		return res, err
	}
	return res, nil
}
