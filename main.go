/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package main

import (
	"fmt"
	"os"

	"github.com/steppnasty/platform-system-su/cli"
	"github.com/steppnasty/platform-system-su/config"
	"github.com/steppnasty/platform-system-su/initiator"
	stdlog "github.com/steppnasty/platform-system-su/log"
	"github.com/steppnasty/platform-system-su/mediator"
	"github.com/steppnasty/platform-system-su/notify"
	"github.com/steppnasty/platform-system-su/policy"
	"github.com/steppnasty/platform-system-su/policydb"
	"github.com/steppnasty/platform-system-su/shellexec"
	"github.com/steppnasty/platform-system-su/userscope"
)

const requestorOptionsPath = "/data/data/com.noshufou.android.su/files/su.options"

func main() {
	res, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage error")
		os.Exit(2)
	}
	if res.ShowHelp {
		fmt.Println(usageText)
		os.Exit(0)
	}
	if res.ShowVersion {
		fmt.Println(cli.Version)
		os.Exit(0)
	}
	if res.ShowVCode {
		fmt.Println(cli.VersionCode)
		os.Exit(0)
	}

	cfg, err := config.Load(config.DefaultConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "su: bad configuration:", err)
		os.Exit(1)
	}

	lg, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "su: failed to open log:", err)
		os.Exit(1)
	}
	defer lg.Close()

	callerUID := uint32(os.Getuid())
	rec, err := initiator.Introspect(callerUID, os.Getppid())
	if err != nil {
		lg.Error("caller introspection failed", stdlog.KVErr(err))
		fmt.Fprintln(os.Stderr, "Permission denied")
		os.Exit(1)
	}

	ownerMode := resolveOwnerMode(requestorOptionsPath)
	scope := userscope.Resolve(callerUID, ownerMode)
	scope.DataPath = firstNonEmpty(scope.DataPath, "/data/data/com.noshufou.android.su")

	target := res.Target
	target.Shell = firstNonEmpty(target.Shell, cfg.DefaultShell)

	ctx := &mediator.Context{
		Initiator: rec,
		Target:    target,
		UserScope: scope,
	}

	deps := mediator.Dependencies{
		PolicyGate:    policy.NewGate(),
		DB:            policydb.AlwaysInteractive{},
		NotifyTrans:   notify.ExecTransport{HelperPath: cfg.NotifyHelper},
		Logger:        lg,
		AcceptTimeout: cfg.AcceptTimeout,
		CacheDirRoot:  scope.DataPath + "/" + cfg.CacheDirName,
		ShellUID:      policy.AID_SHELL,
		RootUID:       policy.AID_ROOT,
	}

	code, execReq, err := mediator.Run(ctx, deps)
	if err != nil || execReq == nil {
		os.Exit(code)
	}

	if err := shellexec.Exec(execReq.Shell, execReq.Argv, execReq.Umask); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot execute %s: %v\n", execReq.Shell, err)
		os.Exit(1)
	}
}

func openLogger(cfg config.Config) (*stdlog.Logger, error) {
	if cfg.LogFile == "" {
		lg := stdlog.NewDiscardLogger()
		lg.SetLevelString(cfg.LogLevel)
		return lg, nil
	}
	lg, err := stdlog.NewFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	if err := lg.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return lg, nil
}

// resolveOwnerMode reads the requestor's single-line options file; its
// absence or an unrecognized value leaves the mode unknown, matching
// read_options' "leave as initialized" behavior on a failed fopen.
func resolveOwnerMode(path string) userscope.OwnerMode {
	b, err := os.ReadFile(path)
	if err != nil {
		return userscope.OwnerModeUnknown
	}
	switch string(b) {
	case "user\n", "user":
		return userscope.OwnerModeUser
	case "owner\n", "owner":
		return userscope.OwnerModeOwner
	default:
		return userscope.OwnerModeUnknown
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

const usageText = `Usage: su [options] [--] [-] [LOGIN] [--] [args...]

Options:
  -c, --command COMMAND         pass COMMAND to the invoked shell
  -h, --help                    display this help message and exit
  -, -l, --login                pretend the shell to be a login shell
  -m, -p,
  --preserve-environment        do not change environment variables
  -s, --shell SHELL             use SHELL instead of the default shell
  -v, --version                 display version number and exit
  -V                            display version code and exit,
                                this is used almost exclusively by the requestor app`
