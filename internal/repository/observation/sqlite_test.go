package observation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	domain "github.com/ahmethakanbesel/bazaar-history/internal/observation"
	"github.com/ahmethakanbesel/bazaar-history/internal/platform/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func obs(product string, ts int64, buy float64) domain.Observation {
	return domain.Observation{
		ProductID:  product,
		BuyPrice:   buy,
		SellPrice:  buy - 1,
		BuyVolume:  100,
		SellVolume: 50,
		Timestamp:  ts,
	}
}

func seed(t *testing.T, repo *Repository, rows ...domain.Observation) {
	t.Helper()
	for _, o := range rows {
		if _, err := repo.Append(context.Background(), o); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestAppend_AssignsID(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	first, err := repo.Append(context.Background(), obs("ENCHANTED_COAL", 1000, 10))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := repo.Append(context.Background(), obs("ENCHANTED_COAL", 2000, 11))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestQueryRange_FiltersAndOrders(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	// Inserted out of order on purpose.
	seed(t, repo,
		obs("ENCHANTED_COAL", 3000, 12),
		obs("ENCHANTED_COAL", 1000, 10),
		obs("WHEAT", 2500, 1),
		obs("ENCHANTED_COAL", 2000, 11),
	)

	got, err := repo.QueryRange(context.Background(), "ENCHANTED_COAL", 1000)
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows strictly after 1000, got %d", len(got))
	}
	if got[0].Timestamp != 2000 || got[1].Timestamp != 3000 {
		t.Errorf("expected ascending timestamps, got %d, %d", got[0].Timestamp, got[1].Timestamp)
	}
	for _, o := range got {
		if o.ProductID != "ENCHANTED_COAL" {
			t.Errorf("unexpected product %s", o.ProductID)
		}
	}
	if got[0].BuyPrice != 11 || got[0].BuyVolume != 100 || got[0].SellVolume != 50 {
		t.Errorf("fields not round-tripped: %+v", got[0])
	}
}

func TestQueryRange_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	got, err := repo.QueryRange(context.Background(), "X", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestQueryRangeAll_MatchesPerProductRanges(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	seed(t, repo,
		obs("WHEAT", 2000, 2),
		obs("ENCHANTED_COAL", 2000, 11),
		obs("WHEAT", 1000, 1),
		obs("ENCHANTED_COAL", 500, 9),
		obs("ENCHANTED_COAL", 1000, 10),
		obs("CARROT", 400, 5),
	)

	const since = 500
	all, err := repo.QueryRangeAll(context.Background(), since)
	if err != nil {
		t.Fatalf("query range all: %v", err)
	}

	// Sorted by (product, timestamp).
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.ProductID > cur.ProductID ||
			(prev.ProductID == cur.ProductID && prev.Timestamp > cur.Timestamp) {
			t.Fatalf("rows out of order at %d: %+v then %+v", i, prev, cur)
		}
	}

	grouped := domain.GroupByProduct(all)
	total := 0
	for _, p := range []string{"CARROT", "ENCHANTED_COAL", "WHEAT"} {
		want, err := repo.QueryRange(context.Background(), p, since)
		if err != nil {
			t.Fatalf("query range %s: %v", p, err)
		}
		got := grouped.Get(p)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d rows, got %d", p, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d]: expected %+v, got %+v", p, i, want[i], got[i])
			}
		}
		total += len(want)
	}
	if total != len(all) {
		t.Errorf("grouping lost or duplicated rows: %d vs %d", total, len(all))
	}
}

func TestAppend_WriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO price_history").WillReturnError(errors.New("disk I/O error"))

	_, err = NewRepository(db).Append(context.Background(), obs("ENCHANTED_COAL", 1, 1))
	if !errors.Is(err, apperror.ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQuery_ReadErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	repo := NewRepository(db)

	mock.ExpectQuery("FROM price_history").WillReturnError(errors.New("database is locked"))
	if _, err := repo.QueryRange(context.Background(), "X", 0); !errors.Is(err, apperror.ErrStorageRead) {
		t.Errorf("query range: expected ErrStorageRead, got %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "product_id", "buy_price", "sell_price", "buy_volume", "sell_volume", "timestamp"}).
		AddRow(1, "X", 1.0, 1.0, 1, 1, 1).
		RowError(0, errors.New("corrupt page"))
	mock.ExpectQuery("FROM price_history").WillReturnRows(rows)
	if _, err := repo.QueryRangeAll(context.Background(), 0); !errors.Is(err, apperror.ErrStorageRead) {
		t.Errorf("query range all: expected ErrStorageRead, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConcurrentAppendAndQuery(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewRepository(db.DB)
	ctx := context.Background()

	const perWriter = 50
	products := []string{"WHEAT", "ENCHANTED_COAL"}

	var (
		writers sync.WaitGroup
		readers sync.WaitGroup
		done    = make(chan struct{})
		errs    = make(chan error, 16)
	)

	for _, p := range products {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := 1; i <= perWriter; i++ {
				if _, err := repo.Append(ctx, obs(p, int64(i), float64(i))); err != nil {
					errs <- fmt.Errorf("append %s: %w", p, err)
					return
				}
			}
		}()
	}

	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				rows, err := repo.QueryRange(ctx, "WHEAT", 0)
				if err != nil {
					errs <- fmt.Errorf("query range: %w", err)
					return
				}
				for j := 1; j < len(rows); j++ {
					if rows[j].Timestamp < rows[j-1].Timestamp {
						errs <- errors.New("query range out of order")
						return
					}
				}
				if _, err := repo.QueryRangeAll(ctx, 0); err != nil {
					errs <- fmt.Errorf("query range all: %w", err)
					return
				}
			}
		}()
	}

	writers.Wait()
	close(done)
	readers.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	all, err := repo.QueryRangeAll(ctx, 0)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != perWriter*len(products) {
		t.Errorf("expected %d rows, got %d", perWriter*len(products), len(all))
	}
}
