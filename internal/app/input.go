package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// Fragments that show up as bare arguments when the operator forgot to
// quote a URL containing '&'.
var strayURLFragments = []string{"list=", "pp=", "t=", "si="}

// BuildRequests assembles the job list from positional URLs or a list
// file. Malformed input fails the whole run up front with an input error.
func BuildRequests(urls []string, listPath, outputName string) ([]JobRequest, error) {
	if listPath != "" {
		var err error
		urls, err = readURLList(listPath)
		if err != nil {
			return nil, err
		}
	}

	if len(urls) == 0 {
		return nil, domain.NewJobError(domain.FailInput,
			"no URLs provided; pass them as arguments or use --list", nil)
	}

	for _, url := range urls {
		for _, fragment := range strayURLFragments {
			if strings.HasPrefix(url, fragment) {
				return nil, domain.NewJobError(domain.FailInput,
					fmt.Sprintf("argument %q looks like an unquoted URL fragment; enclose the whole URL in quotes", url), nil)
			}
		}
	}

	if outputName != "" && len(urls) > 1 {
		return nil, domain.NewJobError(domain.FailInput,
			"a custom output name can only be used with a single URL", nil)
	}

	requests := make([]JobRequest, 0, len(urls))
	for _, url := range urls {
		requests = append(requests, JobRequest{Source: url, OutputName: outputName})
	}
	return requests, nil
}

// readURLList reads one URL per line, skipping blanks and comments.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewJobError(domain.FailInput,
			fmt.Sprintf("cannot read URL list %q", path), err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewJobError(domain.FailInput,
			fmt.Sprintf("error reading URL list %q", path), err)
	}
	return urls, nil
}
