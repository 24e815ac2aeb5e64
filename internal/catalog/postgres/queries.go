package postgres

// Queries are scoped by schema (and table) so identically named objects in
// other schemas or tables never leak in.

const schemasQuery = `
	SELECT t.table_schema, COUNT(*) AS table_count
	FROM information_schema.tables t
	WHERE t.table_type = 'BASE TABLE'
	  AND t.table_schema NOT IN ('pg_catalog', 'information_schema')
	  AND t.table_schema NOT LIKE 'pg\_toast%'
	  AND t.table_schema NOT LIKE 'pg\_temp%'
	GROUP BY t.table_schema
	ORDER BY t.table_schema`

const tablesQuery = `
	SELECT
		t.table_name,
		(SELECT COUNT(*)
		   FROM information_schema.columns c
		  WHERE c.table_schema = t.table_schema
		    AND c.table_name   = t.table_name) AS column_count,
		obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class') AS description
	FROM information_schema.tables t
	WHERE t.table_schema = $1
	  AND t.table_type   = 'BASE TABLE'
	ORDER BY t.table_name`

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS is_nullable,
		c.column_default,
		c.character_maximum_length,
		col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position) AS description,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON  tc.constraint_name   = kcu.constraint_name
				AND tc.constraint_schema = kcu.constraint_schema
				AND tc.table_schema      = kcu.table_schema
				AND tc.table_name        = kcu.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema    = c.table_schema
			  AND tc.table_name      = c.table_name
			  AND kcu.column_name    = c.column_name
		) AS is_primary_key,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON  tc.constraint_name   = kcu.constraint_name
				AND tc.constraint_schema = kcu.constraint_schema
				AND tc.table_schema      = kcu.table_schema
				AND tc.table_name        = kcu.table_name
			WHERE tc.constraint_type = 'FOREIGN KEY'
			  AND tc.table_schema    = c.table_schema
			  AND tc.table_name      = c.table_name
			  AND kcu.column_name    = c.column_name
		) AS is_foreign_key
	FROM information_schema.columns c
	WHERE c.table_schema = $1
	  AND c.table_name   = $2
	ORDER BY c.ordinal_position`

// Constraint names are only unique per table, so foreign keys come from
// pg_constraint keyed by relation OIDs. conkey and confkey are unnested
// together, which keeps composite keys column-aligned.
const foreignKeysQuery = `
	SELECT
		con.conname  AS constraint_name,
		ns.nspname   AS table_schema,
		cl.relname   AS table_name,
		att.attname  AS column_name,
		fns.nspname  AS foreign_table_schema,
		fcl.relname  AS foreign_table_name,
		fatt.attname AS foreign_column_name
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class cl      ON cl.oid  = con.conrelid
	JOIN pg_catalog.pg_namespace ns  ON ns.oid  = cl.relnamespace
	JOIN pg_catalog.pg_class fcl     ON fcl.oid = con.confrelid
	JOIN pg_catalog.pg_namespace fns ON fns.oid = fcl.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
	JOIN pg_catalog.pg_attribute att
		ON  att.attrelid = con.conrelid
		AND att.attnum   = k.attnum
	JOIN pg_catalog.pg_attribute fatt
		ON  fatt.attrelid = con.confrelid
		AND fatt.attnum   = k.fattnum
	WHERE con.contype = 'f'
	  AND ns.nspname  = $1
	  AND cl.relname  = $2
	ORDER BY con.conname, k.ord`
