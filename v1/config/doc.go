// Package config loads the configuration of the MariaDB components from a YAML
// file, .env files and MARIADB_* environment variables.
//
// Example file:
//
//	logger:
//	  level: info
//	  service_name: member-service
//	metrics:
//	  address: ":9090"
//	tracer:
//	  enable_export: false
//	hosts:
//	  - name: accounts
//	    connection:
//	      host: db.internal
//	      port: "3306"
//	      user: app
//	      password: ${ACCOUNTS_DB_PASSWORD}
//	    connection_details:
//	      max_open_conns: 20
//	      acquire_timeout: 5s
//
// ${VAR} references are expanded after the .env files are loaded, so secrets can
// stay out of the YAML file.
package config
