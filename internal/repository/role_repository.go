package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// RoleRepo provides access to the 'roles' table and the 'user_roles' join.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Seed inserts the built-in roles if they are missing. Called once at
// process start; safe to call on every boot.
func (r *RoleRepo) Seed(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO roles (name, description) VALUES ('user','Default role for registered users'),('admin','Administrative access')")
	return err
}

// Create inserts a new role and returns it with its assigned id.
func (r *RoleRepo) Create(ctx context.Context, name, description string) (model.Role, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO roles (name, description) VALUES (?,?)", name, description)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Role{}, ErrRoleExists
		}
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return model.Role{ID: uint64(id), Name: name, Description: description}, nil
}

// GetByName fetches a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description FROM roles WHERE name=? LIMIT 1",
		strings.TrimSpace(name)).Scan(&role.ID, &role.Name, &role.Description)
	return role, err
}

// Assign inserts a user↔role join row. Both the user and the role must
// already exist; a failed foreign key maps to ErrConstraint (MySQL 1452).
// Re-assigning an existing pair is a no-op. A plain INSERT is used rather
// than INSERT IGNORE because IGNORE would swallow the foreign-key failure
// this method is contracted to report.
func (r *RoleRepo) Assign(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			return nil // already assigned
		}
		if strings.Contains(msg, "1452") {
			return ErrConstraint
		}
	}
	return err
}

// RolesOf returns the role names of a user. A user with zero roles yields
// an empty slice; a user id with no users row yields sql.ErrNoRows. The
// LEFT JOINs make that distinction in a single query: the user row always
// produces at least one result row, with a NULL role name when unassigned.
func (r *RoleRepo) RolesOf(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.name
		   FROM users u
		   LEFT JOIN user_roles ur ON ur.user_id = u.id
		   LEFT JOIN roles r ON r.id = ur.role_id
		  WHERE u.id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0, 2)
	found := false
	for rows.Next() {
		found = true
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, sql.ErrNoRows
	}
	return names, nil
}
