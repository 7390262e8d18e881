package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// app 子命令共享的运行环境
type app struct {
	config Config
	store  *IntradayStore
	lang   Language
}

func main() {
	var env app

	cliApp := &cli.App{
		Name:     "stock-chart",
		HelpName: "stock-chart",
		Usage:    "Intraday price chart viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
				Value:   configPath(),
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "zh or en (overrides config)",
			},
		},
		Before: func(c *cli.Context) error {
			return env.setup(c.String("config"), c.String("lang"))
		},
		After: func(_ *cli.Context) error {
			SyncLogger()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "view",
				Usage:     "Open the interactive intraday chart",
				ArgsUsage: "CODE [YYYYMMDD]",
				Action:    env.runView,
			},
			{
				Name:      "describe",
				Usage:     "Print the chart description of a stored day",
				ArgsUsage: "CODE [YYYYMMDD]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print as JSON"},
				},
				Action: env.runDescribe,
			},
			{
				Name:      "import",
				Usage:     "Import minute data from a CSV file",
				ArgsUsage: "FILE.csv",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "eg. SH600000", Required: true},
					&cli.StringFlag{Name: "date", Usage: "eg. 20251126", Required: true},
					&cli.StringFlag{Name: "name", Usage: "stock name"},
					&cli.Float64Flag{Name: "prev-close", Usage: "previous close price"},
					&cli.BoolFlag{Name: "gbk", Usage: "file is GBK encoded"},
				},
				Action: env.runImport,
			},
			{
				Name:  "migrate",
				Usage: "Move legacy intraday folders into per-market folders",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "only report what would be moved"},
				},
				Action: env.runMigrate,
			},
			{
				Name:   "serve",
				Usage:  "Serve chart descriptions over HTTP",
				Action: env.runServe,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		SyncLogger()
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志
func (a *app) setup(path, lang string) error {
	config, err := loadConfig(path)
	if err != nil {
		return err
	}
	if lang == string(Chinese) || lang == string(English) {
		config.System.Language = lang
	}

	if err := InitLogger(config.System.LogDir, parseLogLevel(config.System.LogLevel)); err != nil {
		// 日志不可用时继续运行
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	a.config = config
	a.lang = Language(config.System.Language)
	a.store = NewIntradayStore(config.System.DataDir)
	logLanguage = a.lang
	return nil
}

// codeAndDate 解析 CODE [DATE] 参数；未指定日期时按市场时间选择
func (a *app) codeAndDate(c *cli.Context) (string, string, error) {
	if c.NArg() < 1 {
		return "", "", errors.New("missing stock code")
	}
	code := strings.ToUpper(c.Args().Get(0))
	date := c.Args().Get(1)
	if date == "" {
		date = a.config.smartChartDate(getMarketType(code), time.Now())
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", "", errors.Errorf("invalid date %q (expected YYYYMMDD)", date)
	}
	return code, date, nil
}

func (a *app) runView(c *cli.Context) error {
	code, date, err := a.codeAndDate(c)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(a.config, a.store, code, date), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (a *app) runDescribe(c *cli.Context) error {
	code, date, err := a.codeAndDate(c)
	if err != nil {
		return err
	}

	_, desc, err := loadChart(a.store, a.config, a.lang, code, date)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeDescriptionJSON(os.Stdout, desc)
	}
	fmt.Print(renderDescriptionTable(desc, a.lang, a.config.colorConvention(code, a.lang)))
	return nil
}

func (a *app) runImport(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("missing csv file")
	}

	data, err := ImportCSVFile(a.store, c.Args().First(), ImportOptions{
		Code:      c.String("code"),
		Name:      c.String("name"),
		Date:      c.String("date"),
		PrevClose: c.Float64("prev-close"),
		GBK:       c.Bool("gbk"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: %d\n", data.Code, formatDate(data.Date), len(data.Datapoints))
	return nil
}

func (a *app) runMigrate(c *cli.Context) error {
	report, err := a.store.MigrateLegacy(c.Bool("dry-run"))
	if err != nil {
		return err
	}
	fmt.Print(renderMigrationReport(report))
	return nil
}

func (a *app) runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewChartServer(a.config, a.store).Run(ctx)
}
