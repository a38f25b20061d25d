package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/chipclock/dbutil"
	"github.com/ts4z/chipclock/defaults"
	"github.com/ts4z/chipclock/he"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
)

// DBStorage keeps models as JSON in Postgres, with the columns that are
// queried or locked on pulled out alongside.
type DBStorage struct {
	db       *sql.DB
	builtins *BuiltinPayoutStorage
}

var _ AppStorage = &DBStorage{}

func NewDBStorage(db *sql.DB) *DBStorage {
	return &DBStorage{
		db:       db,
		builtins: NewBuiltinPayoutStorage(),
	}
}

func (s *DBStorage) Close() {
	s.db.Close()
}

func (s *DBStorage) CreateTournament(ctx context.Context, t *model.Tournament) (int64, error) {
	bytes, err := json.Marshal(t)
	if err != nil {
		return -1, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO tournaments (status, model_data) VALUES ($1, $2) RETURNING tournament_id`,
		t.Status, bytes).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("can't create tournament: %w", err)
	}
	return id, nil
}

func (s *DBStorage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	var lock int64
	var status string
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT optimistic_lock, status, model_data FROM tournaments WHERE tournament_id=$1`, id).
		Scan(&lock, &status, &bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.New(404, fmt.Errorf("no such tournament id %d", id))
	} else if err != nil {
		return nil, err
	}

	tm := &model.Tournament{}
	if err := json.Unmarshal(bytes, tm); err != nil {
		return nil, fmt.Errorf("tournament %d: %w", id, err)
	}

	// These come from the database row, not the JSON.
	tm.TournamentID = id
	tm.Version = lock
	tm.Status = model.TournamentStatus(status)
	return tm, nil
}

func (s *DBStorage) SaveTournament(ctx context.Context, tm *model.Tournament) error {
	bytes, err := json.Marshal(tm)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE tournaments SET optimistic_lock=$1+1, status=$2, model_data=$3 WHERE tournament_id=$4 AND optimistic_lock=$1`,
		tm.Version, tm.Status, bytes, tm.TournamentID)
	if err != nil {
		log.Printf("update failed: %v", err)
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return fmt.Errorf("%w: %d rows affected", ErrVersionConflict, n)
	}
	tm.Version++
	return nil
}

func (s *DBStorage) CreateStructure(ctx context.Context, st *model.Structure) (int64, error) {
	bytes, err := json.Marshal(st)
	if err != nil {
		return -1, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO structures (name, model_data) VALUES ($1, $2) RETURNING structure_id`,
		st.Name, bytes).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("can't create structure: %w", err)
	}
	return id, nil
}

func (s *DBStorage) FetchStructure(ctx context.Context, id int64) (*model.Structure, error) {
	if id == defaults.DefaultStructureID {
		return defaults.Structure(), nil
	}

	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT model_data FROM structures WHERE structure_id=$1`, id).Scan(&bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.New(404, fmt.Errorf("no such structure id %d", id))
	} else if err != nil {
		return nil, err
	}

	st := &model.Structure{}
	if err := json.Unmarshal(bytes, st); err != nil {
		return nil, fmt.Errorf("structure %d: %w", id, err)
	}
	st.StructureID = id
	return st, nil
}

func (s *DBStorage) FetchStructureSlugs(ctx context.Context, offset, limit int) ([]*model.StructureSlug, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT structure_id, name FROM structures ORDER BY structure_id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slugs := []*model.StructureSlug{}
	for rows.Next() {
		slug := &model.StructureSlug{}
		if err := rows.Scan(&slug.ID, &slug.Name); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (s *DBStorage) CreatePayoutStructure(ctx context.Context, ps *paytable.PayoutStructure) (int64, error) {
	bytes, err := json.Marshal(ps)
	if err != nil {
		return -1, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO payout_structures (name, model_data) VALUES ($1, $2) RETURNING payout_structure_id`,
		ps.Name, bytes).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("can't create payout structure: %w", err)
	}
	return id, nil
}

// FetchPayoutStructure serves built-in structures for negative IDs and reads
// the database for the rest.
func (s *DBStorage) FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error) {
	if id < 0 {
		return s.builtins.FetchPayoutStructure(ctx, id)
	}

	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT model_data FROM payout_structures WHERE payout_structure_id=$1`, id).Scan(&bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.New(404, fmt.Errorf("no such payout structure id %d", id))
	} else if err != nil {
		return nil, err
	}

	ps := &paytable.PayoutStructure{}
	if err := json.Unmarshal(bytes, ps); err != nil {
		return nil, fmt.Errorf("payout structure %d: %w", id, err)
	}
	ps.ID = id
	return ps, nil
}

func (s *DBStorage) FetchPayoutStructureSlugs(ctx context.Context) ([]*paytable.PayoutStructureSlug, error) {
	slugs, err := s.builtins.FetchPayoutStructureSlugs(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payout_structure_id, name FROM payout_structures ORDER BY payout_structure_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		slug := &paytable.PayoutStructureSlug{}
		if err := rows.Scan(&slug.ID, &slug.Name); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (s *DBStorage) CreateRegistration(ctx context.Context, r *model.Registration) (int64, error) {
	status := r.Status
	if status == "" {
		status = model.RegistrationActive
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO registrations (tournament_id, member_id, buy_in_count, final_chip_count, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING registration_id`,
		r.TournamentID, r.MemberID, r.BuyInCount, r.FinalChipCount, status).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("can't create registration: %w", err)
	}
	return id, nil
}

// FetchRegistrations returns registrations in the order they were made.
func (s *DBStorage) FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT registration_id, member_id, buy_in_count, final_chip_count, status, rank, prize
		 FROM registrations WHERE tournament_id=$1 ORDER BY registration_id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []*model.Registration{}
	for rows.Next() {
		r := &model.Registration{TournamentID: tournamentID}
		var status string
		var rank sql.NullInt32
		var prize sql.NullInt64
		if err := rows.Scan(&r.RegistrationID, &r.MemberID, &r.BuyInCount, &r.FinalChipCount, &status, &rank, &prize); err != nil {
			return nil, err
		}
		r.Status = model.RegistrationStatus(status)
		if rank.Valid {
			v := int(rank.Int32)
			r.Rank = &v
		}
		if prize.Valid {
			v := prize.Int64
			r.Prize = &v
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

func (s *DBStorage) FetchLedgerEntries(ctx context.Context, tournamentID int64) ([]*model.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, member_id, entry_type, amount, created_at
		 FROM ledger_entries WHERE tournament_id=$1 ORDER BY created_at, member_id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.LedgerEntry{}
	for rows.Next() {
		e := &model.LedgerEntry{TournamentID: tournamentID}
		var typ string
		if err := rows.Scan(&e.EntryID, &e.MemberID, &typ, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = model.LedgerEntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// lockRegistrations reads a tournament's registrations and holds them until
// the transaction ends.
func lockRegistrations(ctx context.Context, tx *dbutil.Tx, tournamentID int64) ([]*model.Registration, error) {
	rows, err := tx.Query(ctx,
		`SELECT registration_id, buy_in_count, final_chip_count, status
		 FROM registrations WHERE tournament_id=$1 ORDER BY registration_id FOR UPDATE`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []*model.Registration{}
	for rows.Next() {
		r := &model.Registration{TournamentID: tournamentID}
		var status string
		if err := rows.Scan(&r.RegistrationID, &r.BuyInCount, &r.FinalChipCount, &status); err != nil {
			return nil, err
		}
		r.Status = model.RegistrationStatus(status)
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

// CommitSettlement does the whole write in one transaction.  The tournament
// row and its registrations are locked and re-checked first, so two
// settlements racing each other can't both win, and nobody can register or
// recount halfway through.
func (s *DBStorage) CommitSettlement(ctx context.Context, st *Settlement) error {
	return dbutil.WithTx(ctx, s.db, nil, func(tx *dbutil.Tx) error {
		var status string
		var lock int64
		err := tx.QueryRow(ctx,
			`SELECT status, optimistic_lock FROM tournaments WHERE tournament_id=$1 FOR UPDATE`,
			st.TournamentID).Scan(&status, &lock)
		if errors.Is(err, sql.ErrNoRows) {
			return he.New(404, fmt.Errorf("no such tournament id %d", st.TournamentID))
		} else if err != nil {
			return err
		}
		if err := CheckSettleable(model.TournamentStatus(status)); err != nil {
			return err
		}
		if lock != st.Version {
			return fmt.Errorf("%w: have version %d, settled from %d", ErrVersionConflict, lock, st.Version)
		}

		current, err := lockRegistrations(ctx, tx, st.TournamentID)
		if err != nil {
			return err
		}
		if err := st.CheckRegistrations(current); err != nil {
			return err
		}

		for _, r := range st.Results {
			if err := tx.ExecOne(ctx,
				`UPDATE registrations SET rank=$1, prize=$2 WHERE registration_id=$3 AND tournament_id=$4`,
				r.Rank, r.Prize, r.RegistrationID, st.TournamentID); err != nil {
				return fmt.Errorf("registration %d: %w", r.RegistrationID, err)
			}
		}

		if err := tx.ExecOne(ctx,
			`UPDATE tournaments SET status=$1, optimistic_lock=optimistic_lock+1,
			 model_data=jsonb_set(model_data, '{Status}', to_jsonb($1::text))
			 WHERE tournament_id=$2 AND optimistic_lock=$3`,
			string(model.StatusCompleted), st.TournamentID, st.Version); err != nil {
			return fmt.Errorf("tournament %d: %w", st.TournamentID, err)
		}

		for _, e := range st.Ledger {
			if _, err := tx.Exec(ctx,
				`INSERT INTO ledger_entries (entry_id, tournament_id, member_id, entry_type, amount, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (tournament_id, member_id, entry_type) DO NOTHING`,
				e.EntryID, e.TournamentID, e.MemberID, string(e.Type), e.Amount, e.CreatedAt); err != nil {
				return fmt.Errorf("ledger entry for member %d: %w", e.MemberID, err)
			}
		}
		return nil
	})
}
