package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tangzhangming/sub/internal/config"
)

// cmdInit 初始化项目
func cmdInit(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	name := fs.String("name", "", m.InitOptName)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " subc init [options]")
		fmt.Println()
		fmt.Println(m.InitDesc)
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrGetWorkDir+"\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, m.ErrConfigExists+"\n", config.FileName)
		os.Exit(1)
	}

	cfg := config.Default(dir)
	if *name != "" {
		cfg.Project.Name = *name
	}

	fmt.Printf(m.InitCreating+"\n", config.FileName)
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, m.ErrCreateFile+"\n", err)
		os.Exit(1)
	}

	// 入口文件已存在时保留
	mainPath := filepath.Join(dir, cfg.Project.Entry)
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		fmt.Printf(m.InitCreating+"\n", cfg.Project.Entry)
		if err := os.WriteFile(mainPath, []byte(mainTemplate(cfg.Project.Name)), 0644); err != nil {
			fmt.Fprintf(os.Stderr, m.ErrCreateFile+"\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Printf(m.InitSuccess+"\n", cfg.Project.Name)
	fmt.Println()
	fmt.Println(m.InitNextSteps)
	fmt.Printf("  subc build -ir %s\n", cfg.Project.Entry)
}

func mainTemplate(name string) string {
	return fmt.Sprintf(`#const GREETING = "Hello, %s!"

#function greet(who)
#return GREETING + " (" + who + ")"
#end

#print(greet("SUB"))
`, name)
}
