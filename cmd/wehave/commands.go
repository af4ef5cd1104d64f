package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/crowdfunds"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(cctx *cli.Context, out *market.TxOutcome) error {
	if cctx.Bool("json") {
		return printJSON(out)
	}

	fmt.Printf("transaction %s sent by %s to %s\n", out.Transaction.Hash, out.Transaction.SignerID, out.Transaction.ReceiverID)

	res, err := out.LastResult()
	if err != nil {
		return err
	}

	if len(res) > 0 {
		fmt.Printf("result: %s\n", string(res))
	}

	return nil
}

func argUint(cctx *cli.Context, i int, name string) (uint64, error) {
	s := cctx.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}

	return v, nil
}

var loginCommand = &cli.Command{
	Name:      "login",
	Usage:     "sign in with a key from the credentials directory",
	ArgsUsage: "<account_id>",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		s, err := m.Wallet.SignIn(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}

		fmt.Printf("signed in as %s on %s\n", s.AccountID, s.Network)
		return nil
	},
}

var logoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "forget the current session",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		if err := m.Wallet.SignOut(); err != nil {
			return err
		}

		fmt.Println("signed out")
		return nil
	},
}

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "show the signed in account",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		s := m.Wallet.Session()
		if s == nil {
			fmt.Println(crowdfunds.MsgConnectWallet)
			return nil
		}

		if cctx.Bool("json") {
			return printJSON(s)
		}

		fmt.Printf("%s (%s) %s\n", s.AccountID, s.Network, s.PublicKey)
		return nil
	},
}

var keygenCommand = &cli.Command{
	Name:      "keygen",
	Usage:     "create a key for an account in the credentials directory",
	ArgsUsage: "<account_id>",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		accountID := cctx.Args().First()

		if _, err := m.Keys.KeyPair(accountID); err == nil {
			return fmt.Errorf("a key for %s exists already", accountID)
		}

		kp, err := near.GenerateKeyPair()
		if err != nil {
			return err
		}

		if err := m.Keys.Save(accountID, kp); err != nil {
			return err
		}

		fmt.Printf("public key for %s: %s\n", accountID, kp.Public.String())
		fmt.Println("add it as a full access key of the account before signing in")
		return nil
	},
}

var itemsCommand = &cli.Command{
	Name:  "items",
	Usage: "list the items minted on the items contract",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		items, err := m.Crowdfunds.Items(cctx.Context)
		if err != nil {
			return err
		}

		if cctx.Bool("json") {
			return printJSON(items)
		}

		for _, t := range items {
			title := ""
			if t.Metadata != nil {
				title = t.Metadata.Title
			}
			fmt.Printf("#%s %s owned by %s\n", t.TokenID, title, t.OwnerID)
		}

		return nil
	},
}

var crowdfundsCommand = &cli.Command{
	Name:  "crowdfunds",
	Usage: "list the running crowdfunds",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		cfs, err := m.Crowdfunds.Crowdfunds(cctx.Context)
		if err != nil {
			return err
		}

		if cctx.Bool("json") {
			return printJSON(cfs)
		}

		for _, cf := range cfs {
			progress := "0"
			if cf.Progress != nil {
				progress = com.FormatAmount(cf.Progress.Big())
			}

			fmt.Printf("%d. %s: %s / %s [%s]\n", cf.Index, cf.Metadata.Title, progress, com.FormatAmount(cf.Goal.Big()), cf.Funding.Message)
		}

		return nil
	},
}

var createCrowdfundCommand = &cli.Command{
	Name:  "create-crowdfund",
	Usage: "upload a campaign and open its crowdfund",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "campaign name"},
		&cli.StringFlag{Name: "description", Usage: "campaign description"},
		&cli.StringFlag{Name: "goal", Usage: "goal in the smallest stablecoin unit"},
		&cli.PathFlag{Name: "image", Usage: "path to the campaign picture"},
	},
	Action: func(cctx *cli.Context) error {
		c := &crowdfunds.NewCampaign{
			Name:        cctx.String("name"),
			Description: cctx.String("description"),
			Goal:        cctx.String("goal"),
		}

		if p := cctx.Path("image"); p != "" {
			b, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			c.Picture = b
		}

		// validation errors need no connection
		if _, err := c.Validate(); err != nil {
			return err
		}

		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		res, err := m.Crowdfunds.CreateCampaign(cctx.Context, c)
		if err != nil {
			return err
		}

		if cctx.Bool("json") {
			return printJSON(res)
		}

		fmt.Println(res.Message)
		fmt.Printf("image: %s\nmetadata: %s\n", res.Media.ImageURL, res.Media.MetadataURL)
		return nil
	},
}

var fundCommand = &cli.Command{
	Name:      "fund",
	Usage:     "contribute to a crowdfund",
	ArgsUsage: "<index> <amount>",
	Action: func(cctx *cli.Context) error {
		index, err := argUint(cctx, 0, "index")
		if err != nil {
			return err
		}

		amount, err := market.ParseAmount(cctx.Args().Get(1))
		if err != nil {
			return err
		}

		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		out, err := m.Crowdfunds.Fund(cctx.Context, index, amount)
		if err != nil {
			return err
		}

		return printOutcome(cctx, out)
	},
}

var previewCommand = &cli.Command{
	Name:      "preview",
	Usage:     "show the fee and refund of a contribution",
	ArgsUsage: "<index> <amount>",
	Action: func(cctx *cli.Context) error {
		index, err := argUint(cctx, 0, "index")
		if err != nil {
			return err
		}

		amount, err := market.ParseAmount(cctx.Args().Get(1))
		if err != nil {
			return err
		}

		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		c, err := m.Crowdfunds.Preview(cctx.Context, index, amount)
		if err != nil {
			return err
		}

		if cctx.Bool("json") {
			return printJSON(c)
		}

		fmt.Printf("amount:   %s\n", com.FormatAmount(c.Amount.Big()))
		fmt.Printf("fee:      %s (%s)\n", com.FormatAmount(c.Fee.Big()), com.FormatPercent(c.FeePercentage))
		fmt.Printf("accepted: %s\n", com.FormatAmount(c.Accepted.Big()))
		fmt.Printf("refund:   %s\n", com.FormatAmount(c.Refund.Big()))
		if c.GoalReached {
			fmt.Println(crowdfunds.MsgGoalReached)
		}

		return nil
	},
}

var claimCommand = &cli.Command{
	Name:      "claim",
	Usage:     "register on the token contract of a funded item",
	ArgsUsage: "<ft_prefix>",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		out, err := m.Crowdfunds.Claim(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}

		return printOutcome(cctx, out)
	},
}

var proposalsCommand = &cli.Command{
	Name:      "proposals",
	Usage:     "list proposals and their vote percentages",
	ArgsUsage: "[item]",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		var tallies []*market.ProposalTally
		if cctx.Args().Present() {
			index, err := argUint(cctx, 0, "item")
			if err != nil {
				return err
			}

			g, err := m.Governance.Item(cctx.Context, index)
			if err != nil {
				return err
			}
			tallies = g.Proposals
		} else {
			govs, err := m.Governance.Aggregate(cctx.Context)
			if err != nil {
				return err
			}
			for _, g := range govs {
				tallies = append(tallies, g.Proposals...)
			}
		}

		if cctx.Bool("json") {
			return printJSON(tallies)
		}

		for _, t := range tallies {
			fmt.Printf("[%s #%d] %s (%d voters)\n", t.DAO, t.ProposalIndex, t.Question, t.Voters)
			for i, o := range t.Options {
				pct, _ := t.Percentages[i].Float64()
				mark := " "
				if t.UserVote != nil && *t.UserVote == i {
					mark = "*"
				}
				fmt.Printf("  %s %d. %s %s\n", mark, i, o, com.FormatPercent(pct))
			}
		}

		return nil
	},
}

var proposeCommand = &cli.Command{
	Name:      "propose",
	Usage:     "ask a yes or no question to an item dao",
	ArgsUsage: "<dao> <question>",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		out, err := m.Governance.NewProposal(cctx.Context, cctx.Args().Get(0), cctx.Args().Get(1))
		if err != nil {
			return err
		}

		return printOutcome(cctx, out)
	},
}

var voteCommand = &cli.Command{
	Name:      "vote",
	Usage:     "vote on a proposal",
	ArgsUsage: "<dao> <proposal> <option>",
	Action: func(cctx *cli.Context) error {
		proposal, err := argUint(cctx, 1, "proposal")
		if err != nil {
			return err
		}

		option, err := argUint(cctx, 2, "option")
		if err != nil {
			return err
		}

		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		out, err := m.Governance.Vote(cctx.Context, cctx.Args().Get(0), proposal, int(option))
		if err != nil {
			return err
		}

		return printOutcome(cctx, out)
	},
}

var txCommand = &cli.Command{
	Name:      "tx",
	Usage:     "show the result of a transaction",
	ArgsUsage: "<hash>",
	Action: func(cctx *cli.Context) error {
		m, err := loadMarket(cctx)
		if err != nil {
			return err
		}

		res, err := m.Wallet.TransactionResult(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}

		if len(res) == 0 {
			fmt.Println("null")
			return nil
		}

		fmt.Println(string(res))
		return nil
	},
}
