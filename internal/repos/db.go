package repos

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// Connection parameters for modernc sqlite. Write transactions take the
// database lock at BEGIN so stock reads inside checkout cannot go stale.
const dsnParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Open connects and applies the schema without seeding.
func Open(dsn string) (*sqlx.DB, error) {
	full := dsn
	if strings.Contains(full, "?") {
		full += "&" + dsnParams
	} else {
		full += "?" + dsnParams
	}
	db, err := sqlx.Open("sqlite", full)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

// OpenDB opens the store and seeds demo data when it is empty.
func OpenDB(dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db, logger); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));

CREATE TABLE IF NOT EXISTS profiles(
  user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  is_seller INTEGER NOT NULL DEFAULT 0,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  cart_id TEXT NULL,                -- anonymous cart reference
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS categories(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  parent_id INTEGER NULL REFERENCES categories(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NULL REFERENCES categories(id) ON DELETE SET NULL,
  seller_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  tracking_code TEXT NOT NULL DEFAULT '',
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_seller   ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  session_key TEXT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
  CHECK ((user_id IS NULL) <> (session_key IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_carts_session ON carts(session_key);

CREATE TABLE IF NOT EXISTS cart_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (cart_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  session_key TEXT NULL,
  full_name TEXT NOT NULL,
  shipping_address TEXT NOT NULL,
  contact_info TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','processing','shipped','completed','cancelled')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user    ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_key);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id INTEGER NULL REFERENCES products(id) ON DELETE SET NULL,
  seller_id TEXT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_at_purchase TEXT NOT NULL,
  tracking_code TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','shipped','completed','cancelled'))
);
CREATE INDEX IF NOT EXISTS idx_order_items_order  ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_seller ON order_items(seller_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB, logger *zap.Logger) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("seed.demo", zap.String("what", "categories/products/users"))

	sellerHash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO users(id,username,email,password_hash) VALUES
	  ('u-jeci','jeci','jeci@jecistore.test',?),
	  ('u-ana','ana','ana@jecistore.test',?)`, string(sellerHash), string(sellerHash))
	tx.MustExec(`INSERT INTO profiles(user_id,is_seller) VALUES ('u-jeci',1),('u-ana',0)`)

	tx.MustExec(`INSERT INTO categories(id,name,slug,parent_id) VALUES
	  (1,'Women','women',NULL),
	  (2,'Sandals','sandals',1),
	  (3,'T-Shirts','t-shirts',1),
	  (4,'Accessories','accessories',NULL)`)

	tx.MustExec(`INSERT INTO products(category_id,seller_id,name,description,price,stock,tracking_code,is_featured) VALUES
	  (2,'u-jeci','Summer Sandal','Leather strap sandal','89.90',12,'SND-001',1),
	  (3,'u-jeci','Basic T-Shirt','Cotton crew neck','39.90',30,'',1),
	  (3,'u-jeci','Printed T-Shirt','Floral print','49.90',4,'TSH-PRT',0),
	  (4,'u-jeci','Straw Hat','Wide brim','59.00',0,'',0)`)

	return tx.Commit()
}
