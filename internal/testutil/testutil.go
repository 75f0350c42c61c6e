// Package testutil provides shared test helpers for setting up fixture
// sites and index databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "raido-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Site writes a miniature portfolio site into a temporary directory and
// returns its storage and the default layout. It holds four posts:
//
//	puppy   tags windows, ad, smb      (uid u-puppy)
//	wcorp   tags windows, web          (legacy, no uid)
//	devops  tags linux, docker         (uid u-devops)
//	devel   tags windows, iis          (uid u-devel)
func Site(t *testing.T) (*storage.FS, catalog.Layout) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for path, content := range SiteFiles {
		if err := fs.Write(path, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return fs, catalog.DefaultLayout()
}

// Read returns a site file as a string.
func Read(t *testing.T, fs storage.Provider, path string) string {
	t.Helper()
	data, err := fs.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// SiteFiles are the fixture documents, keyed by root-relative path.
var SiteFiles = map[string]string{
	"src/pages/Home.js": `import React, { useMemo } from 'react';

const Home = () => {
  const recentPosts = useMemo(() => [
    {
      uid: 'u-puppy',
      id: 4,
      title: 'Puppy Walkthrough',
      excerpt: 'Puppy - AD box',
      date: 'Jun 01, 2025',
      category: 'writeup',
      tags: ['windows', 'ad', 'smb'],
      image: '/images/writeups/puppy/machine.png',
      link: '/writeups/puppy-walkthrough',
      os: 'Windows'
    },
    {
      id: 3,
      title: 'Wcorp Walkthrough',
      excerpt: 'Wcorp - web box',
      date: 'May 01, 2025',
      category: 'writeup',
      tags: ['windows', 'web'],
      image: '/images/writeups/wcorp/machine.png',
      link: '/writeups/wcorp-walkthrough'
    },
    {
      uid: 'u-devops',
      id: 2,
      title: 'Devops Walkthrough',
      excerpt: 'Devops - pipelines',
      date: 'Apr 01, 2025',
      category: 'writeup',
      tags: ['linux', 'docker'],
      image: '/images/writeups/devops/machine.png',
      link: '/writeups/devops-walkthrough',
      os: 'Linux'
    },
    {
      uid: 'u-devel',
      id: 1,
      title: 'Devel Walkthrough',
      excerpt: 'Devel - ftp to iis',
      date: 'Mar 01, 2025',
      category: 'writeup',
      tags: ['windows', 'iis'],
      image: '/images/writeups/devel/machine.png',
      link: '/writeups/devel-walkthrough',
      os: 'Windows'
    }
  ], []);

  return <div>{recentPosts.length}</div>;
};

export default Home;
`,
	"src/pages/Writeups.js": `import React from 'react';

const Writeups = () => {
  const writeups = [
    {
      uid: 'u-puppy',
      id: 7,
      title: 'Puppy Walkthrough',
      excerpt: 'Puppy - AD box',
      date: 'Jun 01, 2025',
      tags: ['windows', 'ad', 'smb'],
      image: '/images/writeups/puppy/machine.png',
      link: '/writeups/puppy-walkthrough',
      difficulty: 'Medium',
      category: 'writeup',
      os: 'Windows'
    },
    {
      id: 5,
      title: 'Wcorp Walkthrough',
      excerpt: 'Wcorp - web box',
      date: 'May 01, 2025',
      tags: ['windows', 'web'],
      image: '/images/writeups/wcorp/machine.png',
      link: '/writeups/wcorp-walkthrough',
      difficulty: 'Easy',
      category: 'writeup'
    },
    {
      uid: 'u-devops',
      id: 6,
      title: 'Devops Walkthrough',
      excerpt: 'Devops - pipelines',
      date: 'Apr 01, 2025',
      tags: ['linux', 'docker'],
      image: '/images/writeups/devops/machine.png',
      link: '/writeups/devops-walkthrough',
      difficulty: 'Hard',
      category: 'writeup',
      os: 'Linux'
    },
    {
      uid: 'u-devel',
      id: 2,
      title: 'Devel Walkthrough',
      excerpt: 'Devel - ftp to iis',
      date: 'Mar 01, 2025',
      tags: ['windows', 'iis'],
      image: '/images/writeups/devel/machine.png',
      link: '/writeups/devel-walkthrough',
      difficulty: 'Easy',
      category: 'writeup',
      os: 'Windows'
    }
  ];

  return <div>{writeups.length}</div>;
};

export default Writeups;
`,
	"src/pages/Tags.js": `import React from 'react';

const Tags = () => {
  const allPosts = [
    {
      uid: 'u-puppy',
      id: 4,
      title: 'Puppy Walkthrough',
      category: 'writeup',
      tags: ['windows', 'ad', 'smb']
    },
    {
      id: 3,
      title: 'Wcorp Walkthrough',
      category: 'writeup',
      tags: ['windows', 'web']
    },
    {
      uid: 'u-devops',
      id: 2,
      title: 'Devops Walkthrough',
      category: 'writeup',
      tags: ['linux', 'docker']
    },
    {
      uid: 'u-devel',
      id: 1,
      title: 'Devel Walkthrough',
      category: 'writeup',
      tags: ['windows', 'iis']
    }
  ];

  const tags = [
    {
      name: 'windows',
      count: 1,
      color: '#3D0000'
    }
  ];

  return <div>{tags.length}</div>;
};

export default Tags;
`,
	"src/pages/TagDetail.js": `import React from 'react';
import { useParams } from 'react-router-dom';

const TagDetail = () => {
  const { tagName } = useParams();
  const allPosts = [
    {
      uid: 'u-puppy',
      id: 4,
      title: 'Puppy Walkthrough',
      excerpt: 'Puppy - AD box',
      date: 'Jun 01, 2025',
      tags: ['windows', 'ad', 'smb'],
      image: '/images/writeups/puppy/machine.png',
      link: '/writeups/puppy-walkthrough',
      category: 'writeup'
    },
    {
      id: 3,
      title: 'Wcorp Walkthrough',
      excerpt: 'Wcorp - web box',
      date: 'May 01, 2025',
      tags: ['windows', 'web'],
      image: '/images/writeups/wcorp/machine.png',
      link: '/writeups/wcorp-walkthrough',
      category: 'writeup'
    },
    {
      uid: 'u-devops',
      id: 2,
      title: 'Devops Walkthrough',
      excerpt: 'Devops - pipelines',
      date: 'Apr 01, 2025',
      tags: ['linux', 'docker'],
      image: '/images/writeups/devops/machine.png',
      link: '/writeups/devops-walkthrough',
      category: 'writeup'
    },
    {
      uid: 'u-devel',
      id: 1,
      title: 'Devel Walkthrough',
      excerpt: 'Devel - ftp to iis',
      date: 'Mar 01, 2025',
      tags: ['windows', 'iis'],
      image: '/images/writeups/devel/machine.png',
      link: '/writeups/devel-walkthrough',
      category: 'writeup'
    }
  ];

  const posts = allPosts.filter((p) => p.tags.includes(tagName));
  return <div>{posts.length}</div>;
};

export default TagDetail;
`,
	"src/pages/Projects.js": `import React from 'react';

const Projects = () => {
  const projects = [
    {
      id: 1,
      title: 'Portfolio Site',
      excerpt: 'This site',
      date: 'Jan 01, 2025',
      tags: ['react', 'web'],
      image: '/images/projects/site.png',
      link: '/projects/site',
      github: 'https://github.com/example/site',
      demo: null,
      category: 'project'
    }
  ];

  return <div>{projects.length}</div>;
};

export default Projects;
`,
	"src/pages/WriteupDetail.js": `import React from 'react';
import { useParams } from 'react-router-dom';
// Import specific writeup components
import PuppyWalkthrough from './writeups/puppy/PuppyWalkthrough';
import WcorpWalkthrough from './writeups/wcorp/WcorpWalkthrough';
import DevopsWalkthrough from './writeups/devops/DevopsWalkthrough';
import DevelWalkthrough from './writeups/devel/DevelWalkthrough';

const WriteupDetail = () => {
  const { id } = useParams();
  const writeupComponents = {
    'puppy-walkthrough': PuppyWalkthrough,
    'wcorp-walkthrough': WcorpWalkthrough,
    'devops-walkthrough': DevopsWalkthrough,
    'devel-walkthrough': DevelWalkthrough
  };

  const Component = writeupComponents[id];
  return Component ? <Component /> : null;
};

export default WriteupDetail;
`,
	"src/pages/writeups/puppy/PuppyWalkthrough.js":  "// raido:uid u-puppy\nexport default () => null;\n",
	"src/pages/writeups/puppy/PuppyWalkthrough.css": "/* raido:uid u-puppy */\n",
	"src/pages/writeups/wcorp/WcorpWalkthrough.js":  "export default () => null;\n",
	"public/images/writeups/puppy/machine.png":      "png",
	"public/images/writeups/wcorp/machine.png":      "png",
	"writeups/puppy-walkthrough.html":               "<html></html>\n",
}
