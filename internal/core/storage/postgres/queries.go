package postgres

// SQL queries for sales record storage

const (
	// queryInsertRecord inserts one record of an import batch.
	// id is a BIGSERIAL so insertion order is preserved for LoadRecords.
	queryInsertRecord = `
		INSERT INTO sales_records (
			batch_id, sale_date, store_id, product_type,
			product_name, location, sales_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// queryLoadRecords returns every record in insertion order.
	queryLoadRecords = `
		SELECT
			sale_date, store_id, product_type,
			product_name, location, sales_amount
		FROM sales_records
		ORDER BY id ASC
	`

	queryCountRecords = `SELECT COUNT(*) FROM sales_records`

	querySchemaExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'sales_records'
		)
	`
)
