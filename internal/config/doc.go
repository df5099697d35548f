// Package config loads forensicq settings with viper.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file
// (forensicq.yaml in the working directory or ~/.forensicq, or an explicit
// --config path) and FORENSICQ_* environment variables, where dots in a key
// become underscores:
//
//	db:
//	  path: forensic_data.db
//	  pool_size: 10
//	cache:
//	  backend: redis
//	  redis:
//	    addr: localhost:6379
//
//	FORENSICQ_CACHE_BACKEND=memory forensicq serve
//
// Load validates the result; helpers convert each section into the options
// of the package it configures.
package config
