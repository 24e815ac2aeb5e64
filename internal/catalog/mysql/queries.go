package mysql

const schemasQuery = `
	SELECT t.table_schema, COUNT(*) AS table_count
	FROM information_schema.tables t
	WHERE t.table_type = 'BASE TABLE'
	  AND t.table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
	GROUP BY t.table_schema
	ORDER BY t.table_schema`

const tablesQuery = `
	SELECT
		t.table_name,
		(SELECT COUNT(*)
		   FROM information_schema.columns c
		  WHERE c.table_schema = t.table_schema
		    AND c.table_name   = t.table_name) AS column_count,
		NULLIF(t.table_comment, '') AS description
	FROM information_schema.tables t
	WHERE t.table_schema = ?
	  AND t.table_type   = 'BASE TABLE'
	ORDER BY t.table_name`

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS is_nullable,
		c.column_default,
		c.character_maximum_length,
		NULLIF(c.column_comment, '') AS description,
		c.column_key = 'PRI' AS is_primary_key,
		EXISTS (
			SELECT 1
			FROM information_schema.key_column_usage kcu
			WHERE kcu.table_schema = c.table_schema
			  AND kcu.table_name   = c.table_name
			  AND kcu.column_name  = c.column_name
			  AND kcu.referenced_table_name IS NOT NULL
		) AS is_foreign_key
	FROM information_schema.columns c
	WHERE c.table_schema = ?
	  AND c.table_name   = ?
	ORDER BY c.ordinal_position`

const foreignKeysQuery = `
	SELECT
		kcu.constraint_name,
		kcu.table_schema,
		kcu.table_name,
		kcu.column_name,
		kcu.referenced_table_schema,
		kcu.referenced_table_name,
		kcu.referenced_column_name
	FROM information_schema.key_column_usage kcu
	WHERE kcu.table_schema = ?
	  AND kcu.table_name   = ?
	  AND kcu.referenced_table_name IS NOT NULL
	ORDER BY kcu.constraint_name, kcu.ordinal_position`
