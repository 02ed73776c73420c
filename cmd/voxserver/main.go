/*
Voxserver starts a voxgraph recognition server and begins listening for HTTP
requests.

Usage:

	voxserver [flags]

By default it listens on localhost:8080. Flags override values from a config
file (--config), which in turn override built-in defaults.

The flags are:

	-v, --version
		Print the current version and exit.

	-c, --config FILE
		Load server configuration from the given TOML file.

	-l, --listen ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format.

	-g, --grammar FILE
		Load the intent grammar from the given file. Required unless set in
		the config file.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing admin JWTs. If not given, one is
		randomly generated; tokens will stop validating at shutdown.

	--admin-password PASSWORD
		Set the admin password from plaintext and store its bcrypt hash in
		the running config instead of reading admin_password_hash from the
		config file.

	--slots PATH
		Path to the SQLite file used to cache externally-loaded slot values.
		Defaults to in-memory, uncached.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/voxgraph"
	"github.com/dekarrin/voxgraph/internal/version"
	"github.com/dekarrin/voxgraph/server"
	"github.com/dekarrin/voxgraph/server/slots"
)

var (
	flagVersion  = pflag.BoolP("version", "v", false, "Print the current version and exit.")
	flagConfig   = pflag.StringP("config", "c", "", "Load server configuration from the given TOML file.")
	flagListen   = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagGrammar  = pflag.StringP("grammar", "g", "", "Load the intent grammar from the given file.")
	flagSecret   = pflag.StringP("secret", "s", "", "Use the given secret for signing admin JWTs.")
	flagAdminPwd = pflag.String("admin-password", "", "Set the admin password from plaintext.")
	flagSlots    = pflag.String("slots", ":memory:", "Path to the SQLite slot-value cache.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("voxserver v%s\n", version.Current)
		return
	}

	cfg, err := server.LoadFile(*flagConfig)
	if err != nil {
		log.Fatalf("FATAL could not load config: %s", err)
	}

	if pflag.Lookup("listen").Changed {
		cfg.ListenAddr = *flagListen
	}
	if pflag.Lookup("grammar").Changed {
		cfg.GrammarFile = *flagGrammar
	}
	if pflag.Lookup("slots").Changed {
		cfg.SlotCachePath = *flagSlots
	}

	if pflag.Lookup("secret").Changed {
		cfg.TokenSecret = []byte(*flagSecret)
	}
	if cfg.TokenSecret == nil {
		cfg.TokenSecret = make([]byte, 64)
		if _, err := rand.Read(cfg.TokenSecret); err != nil {
			log.Fatalf("FATAL could not generate token secret: %s", err)
		}
		log.Printf("WARN  using generated token secret; admin tokens issued will stop validating at shutdown")
	}

	if *flagAdminPwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*flagAdminPwd), 14)
		if err != nil {
			log.Fatalf("FATAL could not hash admin password: %s", err)
		}
		cfg.AdminPasswordHash = string(hash)
	}

	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %s\n", err)
		os.Exit(1)
	}

	grammarFile, err := os.Open(cfg.GrammarFile)
	if err != nil {
		log.Fatalf("FATAL could not open grammar file: %s", err)
	}
	defer grammarFile.Close()

	cache, err := slots.Open(cfg.SlotCachePath, func(name string) ([]string, error) {
		return nil, fmt.Errorf("no slot loader configured for %q", name)
	})
	if err != nil {
		log.Fatalf("FATAL could not open slot cache: %s", err)
	}
	defer cache.Close()

	engineOptions := voxgraph.Options{
		Weighted:   cfg.Weighted,
		SlotLoader: voxgraph.SlotLoader(cache.AsLoader()),
	}

	engine, err := voxgraph.Load(grammarFile, engineOptions)
	if err != nil {
		log.Fatalf("FATAL could not compile grammar: %s", err)
	}

	srv, err := server.New(engine, cfg, engineOptions)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err)
	}

	log.Printf("INFO  voxserver %s listening on %s", version.Current, cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		log.Fatalf("FATAL server exited: %s", err)
	}
}
