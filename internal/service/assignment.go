package service

import (
	"context"
	"fmt"

	"repair-tracker/internal/access"
	"repair-tracker/internal/apperr"
	"repair-tracker/internal/lifecycle"
	"repair-tracker/internal/models"
	"repair-tracker/internal/store"
)

// Assign назначает, меняет или снимает (MasterID == nil) мастера заявки.
// При снятии мастера статус не меняется.
func (s *RequestService) Assign(ctx context.Context, p models.Principal, id uint, in AssignInput) error {
	if err := requireRole(p, access.AssignMaster); err != nil {
		return err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, access.AssignMaster, access.RequestFacts(req)); err != nil {
		return err
	}
	if err := lifecycle.CheckAssign(req, in.MasterID, in.Override); err != nil {
		return err
	}
	if in.MasterID != nil {
		if err := s.checkMaster(ctx, *in.MasterID); err != nil {
			return err
		}
	}

	if err := s.setMaster(ctx, p, req, in.MasterID); err != nil {
		return err
	}

	entry := s.logger(p, id, "assign")
	if in.MasterID == nil {
		entry.Info("master unassigned")
	} else {
		entry.WithField("master_id", *in.MasterID).Info("master assigned")
	}
	return nil
}

// Respond: мастер сам берёт неназначенную заявку.
func (s *RequestService) Respond(ctx context.Context, p models.Principal, id uint) error {
	if err := requireRole(p, access.RespondToRequest); err != nil {
		return err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckRespond(req); err != nil {
		return err
	}
	self := p.UserID
	if err := s.checkMaster(ctx, self); err != nil {
		return err
	}
	if err := s.setMaster(ctx, p, req, &self); err != nil {
		return err
	}

	s.logger(p, id, "respond").Info("master took the request")
	return nil
}

func (s *RequestService) checkMaster(ctx context.Context, masterID uint) error {
	if _, err := s.store.GetMaster(ctx, masterID); err != nil {
		return storeErr(err, fmt.Sprintf("master %d", masterID))
	}
	user, err := s.store.GetUser(ctx, masterID)
	if err != nil {
		return storeErr(err, fmt.Sprintf("master %d", masterID))
	}
	if user.Role != models.RoleMaster {
		return apperr.Validation(apperr.ReasonInvalidTarget,
			fmt.Sprintf("user %d is not a master", masterID))
	}
	return nil
}

func (s *RequestService) setMaster(ctx context.Context, p models.Principal, req models.Request, masterID *uint) error {
	current := req.StatusCode()
	next := lifecycle.StatusAfterAssign(current, masterID)

	statusID := req.StatusID
	if next != current {
		st, err := s.statusByCode(ctx, next)
		if err != nil {
			return err
		}
		statusID = st.ID
	}

	err := s.store.UpdateRequestMaster(ctx, req.ID, store.ExpectOf(req), store.MasterUpdate{
		MasterID:  masterID,
		StatusID:  statusID,
		StartWork: next == models.StatusInProgress && masterID != nil,
		ActorID:   p.UserID,
		At:        s.now(),
	})
	return storeErr(err, fmt.Sprintf("request %d", req.ID))
}
