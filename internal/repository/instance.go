package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
)

const ALL_COLUMNS = ` id, workflow_name, status, current_step, attempts, vars, created, modified `

// InstanceRepository is the database/sql backed Store. One row per instance in
// the instance table, history lines in instance_history. Works against
// Postgres, MySQL and SQLite behind the dialect helpers.
type InstanceRepository struct {
	db *sql.DB
}

func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func (r *InstanceRepository) Save(ctx context.Context, instance *domain.Instance) error {
	vars, err := json.Marshal(instance.Vars)
	if err != nil {
		return fmt.Errorf("marshalling instance vars: %w", err)
	}

	// update-then-insert: ticks overwhelmingly touch existing rows
	update := `
		UPDATE instance
		SET workflow_name = ` + placeholder(1) + `,
		    status = ` + placeholder(2) + `,
		    current_step = ` + placeholder(3) + `,
		    attempts = ` + placeholder(4) + `,
		    vars = ` + placeholder(5) + `,
		    modified = ` + placeholder(6) + `
		WHERE id = ` + placeholder(7) + `
	`
	res, err := r.db.ExecContext(ctx, update,
		instance.WorkflowName, string(instance.Status), instance.CurrentStep,
		instance.Attempts, string(vars), formatDateInDatabase(instance.Modified), instance.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	insert := `
		INSERT INTO instance (id, workflow_name, status, current_step, attempts, vars, created, modified)
		VALUES (` + placeholders(8) + `)
	`
	_, err = r.db.ExecContext(ctx, insert,
		instance.ID, instance.WorkflowName, string(instance.Status), instance.CurrentStep,
		instance.Attempts, string(vars),
		formatDateInDatabase(instance.Created), formatDateInDatabase(instance.Modified))
	return err
}

func placeholders(n int) string {
	pps := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pps = append(pps, placeholder(i))
	}
	return strings.Join(pps, ", ")
}

func (r *InstanceRepository) Load(ctx context.Context, id string) (*domain.Instance, error) {
	query := `
		SELECT ` + ALL_COLUMNS + `
		FROM instance WHERE id = ` + placeholder(1) + `
	`

	var inst domain.Instance
	var status string
	var vars string
	var created, modified sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inst.ID,
		&inst.WorkflowName,
		&status,
		&inst.CurrentStep,
		&inst.Attempts,
		&vars,
		&created,
		&modified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	inst.Status = domain.Status(status)
	inst.Created = scanTime(created)
	inst.Modified = scanTime(modified)

	inst.Vars = make(map[string]string)
	if vars != "" && vars != "null" {
		if err := json.Unmarshal([]byte(vars), &inst.Vars); err != nil {
			return nil, fmt.Errorf("parsing instance vars: %w", err)
		}
	}

	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	inst.History = history
	return &inst, nil
}

func (r *InstanceRepository) loadHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT date_time, line
		FROM instance_history
		WHERE instance_id = ` + placeholder(1) + `
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var at sql.NullTime
		if err := rows.Scan(&at, &entry.Line); err != nil {
			return nil, err
		}
		entry.DateTime = scanTime(at)
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *InstanceRepository) AppendHistory(ctx context.Context, id string, entry domain.HistoryEntry) error {
	query := `
		INSERT INTO instance_history (instance_id, date_time, line)
		VALUES (` + placeholders(3) + `)
	`
	_, err := r.db.ExecContext(ctx, query, id, formatDateInDatabase(entry.DateTime), entry.Line)
	return err
}
