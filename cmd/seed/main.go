package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/database"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var month int
	var year int
	var file string

	now := time.Now()
	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机成员, 2: 为所有成员插入一个月的随机班次, 3: 从 csv/xlsx 文件导入成员)")
	flag.IntVar(&n, "n", 5, "要插入的成员数量")
	flag.IntVar(&month, "month", int(now.Month()), "随机班次所在的月份")
	flag.IntVar(&year, "year", now.Year(), "随机班次所在的年份")
	flag.StringVar(&file, "file", "", "要导入的成员文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// 连接数据库，同时保证表结构是最新的
	dbpool, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	// 所有生成或导入的成员使用同一个初始密码
	passwordHash, err := auth.HashPassword(cfg.Seed.Member.Password, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Error("无法生成密码哈希", "error", err)
		os.Exit(1)
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的成员数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			member := utils.GenerateRandomMember(passwordHash, cfg.Seed.Member.EmailDomain)
			if err := repo.CreateAccount(context.Background(), member); err != nil {
				slog.Error("无法插入成员", slog.String("username", member.Username), slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入成员成功", slog.Int("count", cnt))
	case 2:
		if month < 1 || month > 12 {
			slog.Error("请输入合法的月份")
			return
		}

		members, err := repo.GetMembers(context.Background())
		if err != nil {
			slog.Error("无法获取所有成员", slog.String("error", err.Error()))
			return
		}

		p := roster.Params{Month: time.Month(month), Year: year, View: roster.ViewMonthly, Explicit: true}
		dates := roster.DateRange(p, now)

		cnt := 0
		for _, shift := range utils.GenerateRandomShifts(members, dates) {
			if err := repo.UpsertShift(context.Background(), shift); err != nil {
				slog.Error("无法插入班次", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入班次成功", slog.Int("count", cnt))
	case 3:
		if file == "" {
			slog.Error("请通过 -file 指定要导入的文件")
			return
		}

		rows, err := seed.ReadMemberFile(file)
		if err != nil {
			slog.Error("无法读取文件", slog.String("file", file), slog.String("error", err.Error()))
			return
		}

		records, err := seed.ParseMemberRows(rows)
		if err != nil {
			slog.Error("文件格式错误", slog.String("error", err.Error()))
			return
		}

		result, err := seed.ImportMembers(context.Background(), repo, records, passwordHash)
		if err != nil {
			slog.Error("导入成员失败", slog.Int("created", result.Created), slog.String("error", err.Error()))
			return
		}

		slog.Info("导入成员完成", slog.Int("created", result.Created), slog.Int("skipped", result.Skipped))
	default:
		slog.Error("指定的操作非法")
	}
}
