package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kbase/rwp/auth"
	"github.com/kbase/rwp/config"
	"github.com/kbase/rwp/journal"
	"github.com/kbase/rwp/platform"
)

// Prints usage info.
func usage() {
	fmt.Fprintf(os.Stderr, "%s: usage:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "%s <config_file> <command> [args]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  me\n")
	fmt.Fprintf(os.Stderr, "  provider <name>\n")
	fmt.Fprintf(os.Stderr, "  users\n")
	fmt.Fprintf(os.Stderr, "  user <email> <idp>\n")
	fmt.Fprintf(os.Stderr, "  add-user <idp> <email> [role]\n")
	fmt.Fprintf(os.Stderr, "  update-user <uid> <first_name> <last_name> <status> <role>\n")
	fmt.Fprintf(os.Stderr, "  project-user <project_id> <uid> <add|remove>\n")
	fmt.Fprintf(os.Stderr, "  projects\n")
	fmt.Fprintf(os.Stderr, "  project <project_id>\n")
	fmt.Fprintf(os.Stderr, "  create-project <project_id> <description> <index_id>\n")
	fmt.Fprintf(os.Stderr, "  studies [category]\n")
	fmt.Fprintf(os.Stderr, "  study <study_id>\n")
	fmt.Fprintf(os.Stderr, "  create-study <study_id> <name> <description> <project_id> <type> [upload_enabled]\n")
	fmt.Fprintf(os.Stderr, "  permissions <study_id>\n")
	fmt.Fprintf(os.Stderr, "  study-permission <study_id> <uid> <add|remove> [level]\n")
	fmt.Fprintf(os.Stderr, "  workspace-types\n")
	fmt.Fprintf(os.Stderr, "  configurations <type_id>\n")
	fmt.Fprintf(os.Stderr, "  history <start> <stop>   (RFC 3339 timestamps)\n")
	fmt.Fprintf(os.Stderr, "See README.md for details on config files.\n")
	os.Exit(1)
}

// maps the configured log level to its slog equivalent
func logLevel() slog.Level {
	switch config.Service.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Resolves the platform login credential: the config file's username and
// password win if both are given; otherwise the "default" profile is looked
// up in the encrypted credential file.
func resolveCredential() auth.Credential {
	if config.Platform.Username != "" && config.Platform.Password != "" {
		return auth.Credential{
			URL:      config.Platform.URL,
			Username: config.Platform.Username,
			Password: config.Platform.Password,
		}
	}
	store, err := auth.NewCredentialStore()
	if err != nil {
		log.Panicf("Couldn't read the credential store: %s\n", err.Error())
	}
	credential, err := store.Lookup("default")
	if err != nil {
		log.Panicf("Couldn't resolve a login credential: %s\n", err.Error())
	}
	if credential.URL == "" {
		credential.URL = config.Platform.URL
	}
	return credential
}

// prints the given result as indented JSON on stdout
func printResult(result any) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Panicf("Couldn't render the result: %s\n", err.Error())
	}
	fmt.Println(string(data))
}

// Runs a mutating operation and journals its outcome. The journal record
// carries the operation's name, its target, the acting username, and the
// record the operation produced (as its payload).
func journaled(client *platform.Client, actor, operation, target string,
	op func() (any, error)) {

	startTime := time.Now()
	result, err := op()
	record := journal.Record{
		Id:        uuid.New(),
		Operation: operation,
		Target:    target,
		Actor:     actor,
		StartTime: startTime,
		StopTime:  time.Now(),
		Status:    "succeeded",
	}
	if err != nil {
		record.Status = "failed"
	} else {
		if client.DryRun {
			record.Status = "dry-run"
		}
		if payload, marshalErr := json.Marshal(result); marshalErr == nil {
			record.Payload = payload
		}
	}
	if journal.IsOpen() {
		if journalErr := journal.RecordOperation(record); journalErr != nil {
			slog.Error(fmt.Sprintf("Couldn't journal the operation: %s", journalErr.Error()))
		}
	}
	if err != nil {
		log.Panicf("Operation '%s' failed: %s\n", operation, err.Error())
	}
	printResult(result)
}

func main() {

	// The first argument is the configuration filename; the second is the
	// command.
	if len(os.Args) < 3 {
		usage()
	}
	configFile := os.Args[1]
	command := os.Args[2]
	args := os.Args[3:]

	// Read the configuration file.
	b, err := os.ReadFile(configFile)
	if err != nil {
		log.Panicf("Couldn't read %s: %s\n", configFile, err.Error())
	}
	initErr := config.Init(b)
	if initErr != nil {
		log.Panicf("Couldn't initialize the configuration: %s\n", initErr.Error())
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: logLevel()})))

	// Construct the client and log in.
	credential := resolveCredential()
	client, err := platform.NewClient(credential.URL, credential.Username,
		credential.Password)
	if err != nil {
		log.Panicf("Couldn't create the platform client: %s\n", err.Error())
	}
	client.Client = platform.SecureHttpClient(
		time.Duration(config.Platform.Timeout) * time.Second)
	client.DryRun = config.Platform.DryRun

	self, err := client.Login()
	if err != nil {
		log.Panicf("Couldn't log in to the platform: %s\n", err.Error())
	}

	// Open the operation journal if we have somewhere to keep it.
	if config.Service.DataDirectory != "" {
		if err := journal.Init(); err != nil {
			log.Panicf("Couldn't open the operation journal: %s\n", err.Error())
		}
		defer journal.Finalize()
	}

	switch command {

	case "me":
		printResult(self)

	case "provider":
		if len(args) != 1 {
			usage()
		}
		idp, err := client.GetIdp(args[0])
		if err != nil {
			log.Panicf("Couldn't fetch identity providers: %s\n", err.Error())
		}
		if idp == nil {
			log.Panicf("No identity provider named '%s' is registered\n", args[0])
		}
		printResult(idp)

	case "users":
		users, err := client.GetUsers()
		if err != nil {
			log.Panicf("Couldn't fetch users: %s\n", err.Error())
		}
		printResult(users)

	case "user":
		if len(args) != 2 {
			usage()
		}
		user, err := client.GetUserByEmailAndIdp(args[0], args[1])
		if err != nil {
			log.Panicf("Couldn't fetch the user: %s\n", err.Error())
		}
		printResult(user)

	case "add-user":
		if len(args) < 2 || len(args) > 3 {
			usage()
		}
		idpName, email := args[0], args[1]
		role := ""
		if len(args) == 3 {
			role = args[2]
		}
		// the federation URL comes from the provider's registered config
		idp, err := client.GetIdp(idpName)
		if err != nil {
			log.Panicf("Couldn't fetch identity providers: %s\n", err.Error())
		}
		if idp == nil {
			log.Panicf("No identity provider named '%s' is registered\n", idpName)
		}
		journaled(client, self.Username, "add-user", email, func() (any, error) {
			return client.AddFederatedUser(idp.Name, idp.FederationUrl, email, role)
		})

	case "update-user":
		if len(args) != 5 {
			usage()
		}
		journaled(client, self.Username, "update-user", args[0], func() (any, error) {
			return client.UpdateUserDetails(args[0], args[1], args[2], args[3], args[4])
		})

	case "project-user":
		if len(args) != 3 {
			usage()
		}
		journaled(client, self.Username, "project-user", args[1], func() (any, error) {
			return client.AddRemoveProjectUser(args[0], args[1], args[2])
		})

	case "projects":
		projects, err := client.GetProjects()
		if err != nil {
			log.Panicf("Couldn't fetch projects: %s\n", err.Error())
		}
		printResult(projects)

	case "project":
		if len(args) != 1 {
			usage()
		}
		project, err := client.GetProject(args[0])
		if err != nil {
			log.Panicf("Couldn't fetch the project: %s\n", err.Error())
		}
		printResult(project)

	case "create-project":
		if len(args) != 3 {
			usage()
		}
		journaled(client, self.Username, "create-project", args[0], func() (any, error) {
			// the logged-in admin administers the new project
			return client.CreateProject(args[0], args[1], args[2],
				[]platform.User{self})
		})

	case "studies":
		category := ""
		if len(args) == 1 {
			category = args[0]
		}
		studies, err := client.GetStudies(category)
		if err != nil {
			log.Panicf("Couldn't fetch studies: %s\n", err.Error())
		}
		printResult(studies)

	case "study":
		if len(args) != 1 {
			usage()
		}
		study, err := client.GetStudy(args[0])
		if err != nil {
			log.Panicf("Couldn't fetch the study: %s\n", err.Error())
		}
		printResult(study)

	case "create-study":
		if len(args) < 5 || len(args) > 6 {
			usage()
		}
		uploadEnabled := false
		if len(args) == 6 {
			uploadEnabled, err = strconv.ParseBool(args[5])
			if err != nil {
				usage()
			}
		}
		journaled(client, self.Username, "create-study", args[0], func() (any, error) {
			return client.CreateStudy(args[0], args[1], args[2], args[3], args[4],
				uploadEnabled)
		})

	case "permissions":
		if len(args) != 1 {
			usage()
		}
		permissions, err := client.GetStudyPermissions(args[0])
		if err != nil {
			log.Panicf("Couldn't fetch study permissions: %s\n", err.Error())
		}
		printResult(permissions)

	case "study-permission":
		if len(args) < 3 || len(args) > 4 {
			usage()
		}
		level := ""
		if len(args) == 4 {
			level = args[3]
		}
		journaled(client, self.Username, "study-permission", args[0], func() (any, error) {
			return client.AddRemoveStudyPermission(args[0], args[1], args[2], level)
		})

	case "workspace-types":
		types, err := client.GetWorkspaceTypes()
		if err != nil {
			log.Panicf("Couldn't fetch workspace types: %s\n", err.Error())
		}
		printResult(types)

	case "configurations":
		if len(args) != 1 {
			usage()
		}
		configurations, err := client.GetWorkspaceConfigurations(args[0])
		if err != nil {
			log.Panicf("Couldn't fetch workspace configurations: %s\n", err.Error())
		}
		printResult(configurations)

	case "history":
		if len(args) != 2 {
			usage()
		}
		if !journal.IsOpen() {
			log.Panicf("The operation journal is not configured (no data directory)\n")
		}
		start, err := time.Parse(time.RFC3339, args[0])
		if err != nil {
			log.Panicf("Invalid start time '%s': %s\n", args[0], err.Error())
		}
		stop, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			log.Panicf("Invalid stop time '%s': %s\n", args[1], err.Error())
		}
		records, err := journal.Records(start, stop)
		if err != nil {
			log.Panicf("Couldn't fetch journal records: %s\n", err.Error())
		}
		printResult(records)

	default:
		usage()
	}
}
