package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/config"
	"github.com/jandubois/jmxcheck/internal/query"
	"github.com/jandubois/jmxcheck/internal/remote/jolokia"
	"github.com/jandubois/jmxcheck/internal/vars"
)

const defaultURLHelp = config.DefaultURL

// options are the global flags after environment fallbacks.
type options struct {
	defaults        config.Defaults
	configFile      string
	object          string
	regexp          string
	extends         string
	member          string
	tolerateMissing bool
	mergeExtends    bool
	timeout         time.Duration
	env             vars.Env
}

func flagOrEnv(cmd *cobra.Command, flag, envVar string) string {
	v, _ := cmd.Flags().GetString(flag)
	if v == "" {
		v = os.Getenv(envVar)
	}
	return v
}

func loadOptions(cmd *cobra.Command) (*options, error) {
	opts := &options{
		defaults: config.Defaults{
			URL:      flagOrEnv(cmd, "url", "JMXCHECK_URL"),
			User:     flagOrEnv(cmd, "user", "JMXCHECK_USER"),
			Password: flagOrEnv(cmd, "password", "JMXCHECK_PASSWORD"),
		},
	}
	opts.configFile, _ = cmd.Flags().GetString("config")
	opts.object, _ = cmd.Flags().GetString("object")
	opts.regexp, _ = cmd.Flags().GetString("regexp")
	opts.extends, _ = cmd.Flags().GetString("extends")
	opts.member, _ = cmd.Flags().GetString("member")
	opts.tolerateMissing, _ = cmd.Flags().GetBool("tolerate-missing")
	opts.mergeExtends, _ = cmd.Flags().GetBool("merge-extends")
	opts.timeout, _ = cmd.Flags().GetDuration("timeout")

	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	env, err := vars.LoadFiles(envFiles...)
	if err != nil {
		return nil, err
	}
	opts.env = env
	return opts, nil
}

// loadDocument reads the configuration file, or synthesizes a single section
// from the command line when no file is given.
func loadDocument(opts *options) (*config.Document, error) {
	var doc *config.Document
	switch {
	case opts.configFile != "":
		d, err := config.Load(opts.configFile, opts.env)
		if err != nil {
			return nil, err
		}
		doc = d
	case opts.object != "":
		s, err := commandLineSection(opts)
		if err != nil {
			return nil, err
		}
		doc = &config.Document{}
		doc.Append(s)
	default:
		return nil, fmt.Errorf("%w: either --config or --object must be given", errMissingParameter)
	}

	if opts.mergeExtends {
		if err := doc.MergeExtends(opts.env); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// commandLineSection builds a section named after --object. With --regexp
// the object is located by pattern, otherwise --object is the object name.
func commandLineSection(opts *options) (*config.Section, error) {
	s := config.NewSection(opts.object)
	if opts.regexp == "" {
		s.Object = opts.object
	} else if err := s.SetRegexp(opts.regexp); err != nil {
		return nil, err
	}
	s.User = opts.defaults.User
	s.Password = opts.defaults.Password
	s.Extends = opts.extends

	if len(opts.member) > 1 {
		name, kind := config.ParseMemberRef(opts.member)
		s.Add(config.NewMember(name, kind, config.TypeNone))
	}
	return s, nil
}

func newRetriever(opts *options) *query.Retriever {
	qopts := query.Options{
		Defaults:        opts.defaults,
		Env:             opts.env,
		TolerateMissing: opts.tolerateMissing,
	}
	// a command line section already carries --regexp as its own pattern
	if opts.configFile != "" {
		qopts.Pattern = opts.regexp
	}
	return query.NewRetriever(jolokia.NewDialer(opts.timeout), qopts)
}
