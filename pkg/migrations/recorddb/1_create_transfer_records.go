package recorddb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/lpbridge/middleware/pkg/pgutil/migrations"
	"github.com/lpbridge/middleware/pkg/record"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transfer_records table...")
		if err := mghelper.CreateSchema(ctx, db, &record.TransferRecordDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &record.TransferRecordDao{},
			"token_symbol", "source_chain_id", "completed_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transfer_records table...")
		return mghelper.DropTables(ctx, db, &record.TransferRecordDao{})
	})
}
