// Package config defines chatgate's configuration object and how it is loaded.
//
// Configuration is layered:
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. An optional YAML file passed with --config
//  3. The process environment (ApplyEnv), which carries the platform flags
//     and the model endpoint settings
//
// Identity credentials (CLIENT_ID, CLIENT_SECRET, TENANT_ID, FLASK_SECRET_KEY)
// are filled in by the credentials package, which reads them either from the
// environment or from Key Vault depending on Platform.
//
// Example config.yaml:
//
//	server:
//	  port: 8000
//	  publicUrl: "https://chat.example.com"
//	session:
//	  ttl: 8h
//	  storage:
//	    type: valkey
//	    valkey:
//	      address: "cache.example.com:6380"
//	      tlsEnabled: true
//	completion:
//	  maxTokens: 1000
//	  temperature: 0.7
//
// Secrets are held in Redacted so that printing the configuration never
// exposes them.
package config
