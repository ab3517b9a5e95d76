// Package access answers capability questions for a board context.
package access

import (
	"context"
	"fmt"

	"mosaicboard/internal/models"
)

// Checker is the capability oracle.
type Checker interface {
	HasCapability(ctx context.Context, contextID int64, capability models.Capability, userID int64) (bool, error)
}

type roleSource interface {
	GetRole(ctx context.Context, contextID, userID int64) (models.Role, error)
}

var archetypes = map[models.Role][]models.Capability{
	models.RoleGuest: {models.CapView},
	models.RoleStudent: {
		models.CapView, models.CapPost, models.CapEditOwnPost, models.CapDeleteOwnPost,
	},
	models.RoleTeacher: {
		models.CapView, models.CapPost, models.CapEditOwnPost, models.CapDeleteOwnPost,
		models.CapModerate, models.CapManage,
	},
	models.RoleManager: {
		models.CapView, models.CapPost, models.CapEditOwnPost, models.CapDeleteOwnPost,
		models.CapModerate, models.CapManage,
	},
}

// RoleChecker grants capabilities by the role a user holds in a context.
// A user without a role holds nothing.
type RoleChecker struct {
	roles roleSource
}

func NewRoleChecker(roles roleSource) *RoleChecker {
	return &RoleChecker{roles: roles}
}

func (c *RoleChecker) HasCapability(ctx context.Context, contextID int64, capability models.Capability, userID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}

	role, err := c.roles.GetRole(ctx, contextID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}

	for _, granted := range archetypes[role] {
		if granted == capability {
			return true, nil
		}
	}

	return false, nil
}

// Require fails with a PermissionError carrying message when the user
// lacks capability.
func Require(ctx context.Context, checker Checker, contextID, userID int64, capability models.Capability, message string) error {
	ok, err := checker.HasCapability(ctx, contextID, capability, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &models.PermissionError{Capability: capability, Message: message}
	}
	return nil
}

// Grants evaluates the permission summary sent to the client.
func Grants(ctx context.Context, checker Checker, contextID, userID int64) (models.Permissions, error) {
	var perms models.Permissions

	targets := []struct {
		capability models.Capability
		dst        *bool
	}{
		{models.CapView, &perms.CanView},
		{models.CapPost, &perms.CanPost},
		{models.CapModerate, &perms.CanModerate},
		{models.CapManage, &perms.CanManage},
	}

	for _, target := range targets {
		ok, err := checker.HasCapability(ctx, contextID, target.capability, userID)
		if err != nil {
			return models.Permissions{}, err
		}
		*target.dst = ok
	}

	return perms, nil
}

// CanEdit reports whether userID may edit card: its author holding
// editownpost, or anyone holding moderate.
func CanEdit(ctx context.Context, checker Checker, board *models.Board, card *models.Card, userID int64) (bool, error) {
	return ownOrModerate(ctx, checker, board.ContextID, card, userID, models.CapEditOwnPost)
}

// CanDelete mirrors CanEdit with deleteownpost.
func CanDelete(ctx context.Context, checker Checker, board *models.Board, card *models.Card, userID int64) (bool, error) {
	return ownOrModerate(ctx, checker, board.ContextID, card, userID, models.CapDeleteOwnPost)
}

func ownOrModerate(ctx context.Context, checker Checker, contextID int64, card *models.Card, userID int64, own models.Capability) (bool, error) {
	if card.UserID == userID {
		ok, err := checker.HasCapability(ctx, contextID, own, userID)
		if err != nil || ok {
			return ok, err
		}
	}

	return checker.HasCapability(ctx, contextID, models.CapModerate, userID)
}
